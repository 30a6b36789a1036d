package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"
	"backoffice/config"
	"backoffice/models"
	"backoffice/storage"
)

// Consumer drains one source's scraper queue into the review store. Each
// scraping source gets its own queue and its own Consumer so a stuck
// source never starves the others.
type Consumer struct {
	url      string
	prefetch int
	source   *config.SourceConfig
	store    storage.Store

	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewConsumer(amqpURL string, prefetch int, source *config.SourceConfig, store storage.Store) *Consumer {
	if prefetch <= 0 {
		prefetch = 10
	}
	return &Consumer{url: amqpURL, prefetch: prefetch, source: source, store: store}
}

// Start connects, declares the source queue and consumes it until the
// context is cancelled or the channel dies.
func (c *Consumer) Start(ctx context.Context) error {
	conn, err := amqp.Dial(c.url)
	if err != nil {
		return fmt.Errorf("amqp dial: %w", err)
	}
	c.conn = conn

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("amqp channel: %w", err)
	}
	c.ch = ch

	queue, err := ch.QueueDeclare(c.source.Queue, true, false, false, false, nil)
	if err != nil {
		c.Close()
		return fmt.Errorf("declare queue %s: %w", c.source.Queue, err)
	}
	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		c.Close()
		return fmt.Errorf("set qos: %w", err)
	}

	deliveries, err := ch.Consume(queue.Name, "backoffice-"+c.source.ID, false, false, false, false, nil)
	if err != nil {
		c.Close()
		return fmt.Errorf("consume %s: %w", queue.Name, err)
	}

	log.Printf("[ingest] consuming %s for source %s", queue.Name, c.source.ID)

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel for %s closed", queue.Name)
			}
			c.handle(ctx, d)
		}
	}
}

// handle decides the fate of one delivery. Contract violations are dead
// on arrival and must not be redelivered; store failures are transient
// and the message goes back on the queue.
func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) {
	if err := ValidateScrapedListing(d.Body); err != nil {
		log.Printf("[ingest] %s: dropping invalid message: %v", c.source.ID, err)
		if err := d.Nack(false, false); err != nil {
			log.Printf("[ingest] %s: nack failed: %v", c.source.ID, err)
		}
		return
	}

	var dto ScrapedListingDTO
	if err := json.Unmarshal(d.Body, &dto); err != nil {
		log.Printf("[ingest] %s: dropping undecodable message: %v", c.source.ID, err)
		if err := d.Nack(false, false); err != nil {
			log.Printf("[ingest] %s: nack failed: %v", c.source.ID, err)
		}
		return
	}

	listing := dto.ToListing(c.source)
	if err := c.store.InsertListing(ctx, listing); err != nil {
		requeue := errors.Is(err, models.ErrStoreUnavailable)
		log.Printf("[ingest] %s: insert failed (requeue=%v): %v", c.source.ID, requeue, err)
		if err := d.Nack(false, requeue); err != nil {
			log.Printf("[ingest] %s: nack failed: %v", c.source.ID, err)
		}
		return
	}

	if err := d.Ack(false); err != nil {
		log.Printf("[ingest] %s: ack failed: %v", c.source.ID, err)
		return
	}
	log.Printf("[ingest] %s: stored listing %s (%s)", c.source.ID, listing.ID, listing.Source.ExternalID)
}

func (c *Consumer) Close() error {
	if c.ch != nil {
		c.ch.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
