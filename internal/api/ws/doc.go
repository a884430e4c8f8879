// Package ws streams terminal sessions to renderers over WebSocket.
//
// A client connects to /terminals/:id/stream and receives JSON frames:
//
//	{"type":"output","data":"<base64>"}
//	{"type":"cwd","path":"/home/user/src"}
//	{"type":"copy","text":"copied text"}
//	{"type":"exit","exit_code":0}
//
// Clients send {"type":"input","input":"ls\r"}, {"type":"resize","cols":120,"rows":40}
// or {"type":"ping"}. Failed client requests are answered with an error frame.
package ws
