// Package services contains the application flows of the cropdoc client:
// authentication and language, diagnosis, and chat. Each flow composes the
// session manager, the HTTP client, the media pipeline and the translation
// resolver; none of them keeps global state.
//
// Flows that can be re-triggered while a previous call is in flight take a
// ticket from a Generation. A response whose ticket is no longer current
// is dropped and reported as ErrSuperseded.
package services
