// Package highlight keeps a live, per-token colour model for an edited
// buffer in step with a slow, fallible remote classifier.
//
// Edits repaint changed lines immediately with colours borrowed from the
// previous paint, mark them dirty, and (re)arm two debounce timers: a short
// one that classifies just the dirty lines and a long one that reclassifies
// the whole buffer if any partial pass ran since the last full pass. All
// classification requests pass through a Gate that dispatches the first
// request of a burst immediately and folds the rest into one follow-up.
// Responses are merged only for lines whose text still matches what was sent.
//
// Everything runs on the Bubble Tea update loop: timers are tagged tick
// messages and classifier calls are commands whose results come back as
// ClassifiedMsg, so no locking is needed.
package highlight
