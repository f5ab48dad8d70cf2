// Package engine feeds world events to the brewing handlers.
//
// Single-Writer Event Loop:
// Events are processed one at a time, in arrival order, by a single
// goroutine. Each event runs to completion before the next starts:
// the world change is applied, the affected stations are notified, and the
// outcomes are journaled.
//
// Routing:
//
//	place/break at p  -> StationDestroyed(p) when a cauldron is removed,
//	                     then HeatChanged for cauldrons at p+1 and p+2
//	fill at p         -> LevelChanged(p); the level is applied unless suppressed
//	add at p          -> AddIngredient(p)
//	scoop at p        -> Scoop(p)
//	transfer at p     -> Transfer(p)
//
// Event time is carried by the event itself (At, unix milliseconds), so a
// journal replays to identical outcomes. Sequence numbers come from a
// logical Clock, never the wall clock.
//
// Errors from collaborators are logged with the event and processing
// continues with the next event.
package engine
