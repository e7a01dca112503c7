// Package subtitles converts SubRip caption tracks into styled Advanced
// SubStation Alpha (ASS) presentation tracks.
//
// Decode normalizes the raw bytes (BOM handling, UTF-16, legacy Windows-1252
// fallback, line endings), Parse splits the track into cues, and Transcode
// pairs the cues with a resolved style to produce a Track that renders the
// ASS document consumed by ffmpeg's subtitles filter. Every step is a pure
// function of its inputs.
package subtitles
