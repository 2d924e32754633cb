// Package errors provides the coded error type used across the game-master
// engine.
//
// Every failure that crosses a component boundary carries a Code so the
// session orchestrator can decide what the player is told without
// inspecting error strings:
//
//   - CodeNotFound: no game state for the player yet; routes to the
//     character-creation flow rather than surfacing an error.
//   - CodeInvalidArgument: malformed input (bad dice notation, creation
//     choices outside the enumerated lists). The call fails, the process
//     never does.
//   - CodeUnavailable / CodeDeadlineExceeded: the narrative backend is
//     down or slow. Transient; the player is the retry trigger.
//   - CodeDataLoss: the narrative backend answered with something we
//     could not use. Logged, surfaced as a generic failure, and no
//     history is appended.
//   - CodeAborted: a store transaction kept failing under contention.
//     Per-player serialization should make this impossible, so it is
//     treated as a locking bug and fatal-logged.
//
// Usage:
//
//	if errors.IsNotFound(err) {
//	    return o.beginCharacterCreation(ctx, playerID)
//	}
//
//	return nil, errors.Wrapf(err, "failed to load state for %s", playerID)
//
// Wrap preserves the code of an *Error cause; wrapping a plain error
// yields CodeInternal.
package errors
