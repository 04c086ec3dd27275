// Package lineserver serves the newline-delimited JSON protocol.
//
// Every request is one JSON object on one line:
//
//	{"action":"SET","namespace":"app","key":"k1","value":"v1"}
//	{"action":"SUBSCRIBE","channel":"news"}
//
// and every reply is one line:
//
//	{"status":"ok","result":"OK"}
//	{"status":"error","error":"unknown action: 'FOO'","code":400,"kind":"UnknownAction","error_code":"RM-ACT-4000"}
//
// Published messages arrive on subscribed connections as
//
//	{"status":"ok","type":"message","channel":"news","message":"hello"}
package lineserver
