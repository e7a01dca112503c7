// Package encoding burns a presentation track into a video with ffmpeg.
//
// The Encoder interface is the orchestrator's only view of the external
// encoder, so argument construction and error classification can be tested
// with a substitute CommandRunner. FFmpeg runs with the request workspace as
// its working directory, which lets the subtitles filter reference the ASS
// file by bare name without filtergraph escaping. A non-zero exit surfaces
// as *ExitError carrying ffmpeg's stderr verbatim.
package encoding
