package stock

import (
	"context"

	"github.com/IBM/sarama"

	"github.com/vladislavdragonenkov/shop/internal/messaging/kafka"
)

// NewUpdateHandler возвращает handler входящего потока остатков:
// каждое сообщение парсится и уходит в батч-процессор.
func NewUpdateHandler(processor *Processor) kafka.MessageHandler {
	return func(ctx context.Context, message *sarama.ConsumerMessage) error {
		update, err := kafka.ParseStockUpdate(message)
		if err != nil {
			return err
		}
		processor.Submit(ctx, Update{SKU: update.SKU, Stock: update.Stock})
		return nil
	}
}
