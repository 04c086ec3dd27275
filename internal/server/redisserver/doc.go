// Package redisserver serves the key-value and pub/sub commands over RESP2,
// so stock Redis clients (redis-cli, go-redis) can talk to rediminute.
//
// Supported commands:
//   - PING [message], QUIT
//   - SET key value, GET key, DEL key, EXISTS key
//   - SUBSCRIBE channel [channel ...], UNSUBSCRIBE channel [channel ...]
//   - PUBLISH channel message
//
// Keys may name a namespace as "namespace^key"; a key without '^' lives in
// the global namespace. Errors are returned as "-ERR <code> <message>".
//
// Each connection owns a pubsub.Mailbox. A pump goroutine drains it and
// writes "*3 message <channel> <payload>" pushes, sharing the write lock
// with command replies.
package redisserver
