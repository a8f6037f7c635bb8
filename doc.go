// Package chatsdk provides a Go client for a live-chat backend's WebSocket
// protocol.
//
// It maintains a persistent connection, correlates fire-and-forget commands
// with their asynchronous postbacks, and reconstructs chat-thread state
// (messages, read/seen status, custom fields, agent assignment) from the
// server's event stream. Application code observes the session through a
// ChatDelegate.
//
// Basic usage:
//
//	client := chatsdk.NewClient(chatsdk.Config{
//		SocketURL: "wss://chat.example.com/",
//		BrandID:   1234,
//		ChannelID: "chat_abc",
//	}, chatsdk.WithDelegate(myDelegate))
//
//	if err := client.Connect(ctx); err != nil { ... }
//
//	thread, err := client.CreateThread(nil)
//	msg, err := client.SendMessage(ctx, thread.ID, "Hello")
//
// Inbound events are dispatched on a single worker goroutine in arrival
// order; delegate callbacks run on that goroutine and observe state after the
// corresponding mutation has been applied.
package chatsdk
