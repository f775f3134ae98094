// Package upload moves picked or dropped files from the browser into the
// live session without pushing binary data through the WebSocket.
//
// WebSocket connections are poor at carrying large binary payloads (they
// block heartbeats and the event loop), so files take a side channel:
//
//  1. The user drops a file or changes the file picker
//  2. The client POSTs the first file to /_upload (multipart field "file")
//  3. The server keeps the bytes in a MemoryStore and returns a temp_id
//  4. The client sends the drop/change event with file descriptors that
//     carry the temp_id
//  5. The session wraps each descriptor in a Pending candidate; the first
//     call to Bytes claims the stored file
//
// Nothing is written to disk. Entries that are never claimed expire after
// Config.TempExpiry and are removed by Cleanup. Candidates a view decides
// not to keep are discarded at once.
package upload
