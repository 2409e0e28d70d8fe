// Package script compiles Lua snippets into event listeners.
//
// A snippet is the body of a function receiving the event as e:
//
//	e:set("seen", true)
//	if e:current_type() == "form" then
//	    e:stop_propagation()
//	end
//	return #e:type_stack()
//
// The value returned by the snippet becomes the listener's return value.
// A Lua error becomes a *ScriptError returned from the listener, which
// aborts the dispatch.
//
// Only the base, table, string and math libraries are available. File
// loading functions are removed and print is routed to the engine logger.
package script
