package ws

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/prediction-gateway-poc/pkg/contracts/events"
)

// PubSubChannel é o canal Redis Pub/Sub default de broadcast de predições
const PubSubChannel = "prediction_results_broadcast"

// StartRedisSubscriber inicia uma goroutine que escuta o canal Redis Pub/Sub
// e repassa os resultados recebidos para os clientes WebSocket via Hub
//
// Funcionamento:
// - Recebe mensagens JSON do canal Redis
// - Desserializa para PredictionCompleted
// - Chama hub.Broadcast para entregar aos inscritos na partida
func StartRedisSubscriber(ctx context.Context, r *redis.Client, channel string, hub *Hub) {
	if channel == "" {
		channel = PubSubChannel
	}
	sub := r.Subscribe(ctx, channel)
	ch := sub.Channel()
	go func() {
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close() // encerra a inscrição ao finalizar o contexto
				return
			case msg := <-ch:
				if msg == nil {
					continue
				}
				var upd events.PredictionCompleted
				if err := json.Unmarshal([]byte(msg.Payload), &upd); err != nil {
					log.Printf("ws subscriber unmarshal error: %v", err)
					continue
				}
				hub.Broadcast(upd) // entrega aos clientes inscritos
			}
		}
	}()
}
