// Package media produces spoken renditions of text summaries.
//
// Speech synthesis goes through the Synthesizer port (Google Cloud
// Text-to-Speech REST by default) and the resulting MP3 lands in blob
// storage under a content-addressed path, so identical text and voice never
// hit the TTS backend twice.
package media
