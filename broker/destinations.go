// Package broker implements the authenticated real-time message core:
// the connection registry, the destination dispatch table, and the
// fan-out delivery worker. Transport and persistence stay outside.
package broker

// Application destinations (client -> server).
const (
	DestChatSend    = "/app/chat.send"
	DestChatJoin    = "/app/chat.join"
	DestVideoOffer  = "/app/video.offer"
	DestVideoAnswer = "/app/video.answer"
	DestVideoICE    = "/app/video.ice"
	DestVideoCall   = "/app/video.call"
)

// Broker destinations (server -> client).
const (
	TopicMessages      = "/topic/messages"
	TopicNotifications = "/topic/notifications"

	QueueVideoOffer  = "/user/queue/video.offer"
	QueueVideoAnswer = "/user/queue/video.answer"
	QueueVideoICE    = "/user/queue/video.ice"
	QueueVideoCall   = "/user/queue/video.call"
)
