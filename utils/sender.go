package utils

import (
	"leadflow/models"
)

// OutboundMessage is the payload handed to a channel sender. The orchestrator
// computes what to send and when; actual transmission, and any retries, are
// the sender's concern.
type OutboundMessage struct {
	To      *models.Contact
	Channel models.Channel
	Subject string
	Body    string
}

// ChannelSender transmits a message on one channel and returns a provider
// message id when available
type ChannelSender interface {
	Send(msg OutboundMessage) (string, error)
}

// SenderRegistry maps channels to their configured senders
type SenderRegistry map[models.Channel]ChannelSender
