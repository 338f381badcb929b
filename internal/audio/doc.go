// Package audio holds decoded clip audio as interleaved 16-bit PCM and the
// handful of operations the sample generator needs on it: duration queries,
// concatenation, looping overlays and gain. It also decodes source clips
// (mp3, wav, flac) with beep, exports WAV files with go-audio and plays
// finished samples through oto/v3.
package audio
