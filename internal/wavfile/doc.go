// Package wavfile reads and writes recordings: a canonical 44 byte PCM WAV
// header, the raw little-endian payload, and a trailing "id3 " block of
// KEY:value; metadata records. Containers can be merged by concatenating
// their payloads.
package wavfile
