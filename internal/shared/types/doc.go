// Package types provides shared data structures for the terminal backend.
//
// Core Types:
//   - Service, Tool, Parameter: provider definitions exposed by the registry
//   - Context, Result: execution context and standard operation result
//
// Request Types:
//   - ExecuteRequest: service tool execution
//   - CreateTerminalRequest, InputRequest, ResizeRequest: terminal REST API
//
// Stream Types:
//   - Frame: output, cwd, copy and exit notifications sent to renderers
//   - ClientMessage: input, resize and ping messages from renderers
package types
