// Package topic provides hierarchical event names for the emitter.
//
// # Topic Format
//
// Topics use colon notation to create hierarchical namespaces:
//
//	test:foo:bar
//	click
//	widget:resize:done
//
// # Prefix Levels
//
// A topic is dispatched level by level, from the full name down to its
// first segment. Levels reports each prefix together with the segments
// that were stripped off to reach it:
//
//	for _, lvl := range topic.Topic("a:b:c").Levels() {
//	    // "a:b:c" []
//	    // "a:b"   ["c"]
//	    // "a"     ["b" "c"]
//	}
//
// There is no wildcard matching; a listener on "a:b" sees "a:b" and every
// topic below it, nothing else.
package topic
