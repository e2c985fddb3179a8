// Package main runs a stand-in for a local Ollama-compatible inference
// service, used by cipherchat during development and tests.
//
// HTTP API
//
//	POST /api/chat
//	    Body {"model", "messages": [{"role", "content"}], "stream": false}.
//	    Replies {"model", "message": {"role": "assistant", "content"},
//	    "done": true}, echoing the latest user turn.
//
// Behaviour
//
//   - Nothing is stored; every request is answered from its own body.
//   - A lightweight access log records method, path, remote, status, bytes and
//     duration for each request.
//   - The default listen address is 127.0.0.1:11434, Ollama's default, so
//     cipherchat needs no configuration to talk to it.
package main
