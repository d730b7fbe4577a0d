// Package summarizer turns YouTube links into text summaries.
//
// The pipeline extracts the video id from the pasted link, fetches captions
// from the timedtext endpoint (preferred language first, English fallback)
// and asks an OpenAI-compatible chat completion endpoint for a summary at
// the user's preferred detail level. The elapsed processing time is reported
// back so usage statistics can account for it.
package summarizer
