package telegram

import (
	"context"
	"fmt"
	"log"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"
)

// Client wraps the bot platform API for the relay channel.
type Client struct {
	api *tgbotapi.BotAPI
}

// NewClient authorizes against the bot API. An empty token is an error;
// callers decide whether the channel is optional.
func NewClient(token string) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram token not provided")
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("init telegram bot api: %w", err)
	}
	log.Printf("telegram bot authorized as %s", api.Self.UserName)
	return &Client{api: api}, nil
}

// SendText relays a plain text message.
func (c *Client) SendText(_ context.Context, chatID int64, text string) error {
	_, err := c.api.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

// SendAudio relays an audio attachment by URL with a caption.
func (c *Client) SendAudio(_ context.Context, chatID int64, url, caption string) error {
	msg := tgbotapi.NewAudio(chatID, tgbotapi.FileURL(url))
	msg.Caption = caption
	_, err := c.api.Send(msg)
	return err
}

// SendVideo relays a video attachment by URL with a caption.
func (c *Client) SendVideo(_ context.Context, chatID int64, url, caption string) error {
	msg := tgbotapi.NewVideo(chatID, tgbotapi.FileURL(url))
	msg.Caption = caption
	_, err := c.api.Send(msg)
	return err
}

// SendDocument relays a document attachment by URL with a caption.
func (c *Client) SendDocument(_ context.Context, chatID int64, url, caption string) error {
	msg := tgbotapi.NewDocument(chatID, tgbotapi.FileURL(url))
	msg.Caption = caption
	_, err := c.api.Send(msg)
	return err
}
