// Package kafka 提供了与 Kafka 消息队列交互的功能。
// 本服务只作为生产者：标签渲染等消费方是独立部署的外部服务。
package kafka

import (
	"context"
	"encoding/json"

	"boxseek-go/internal/config"
	"boxseek-go/pkg/log"

	"github.com/segmentio/kafka-go"
)

var producer *kafka.Writer

// InitProducer 初始化 Kafka 生产者。
func InitProducer(cfg config.KafkaConfig) {
	producer = &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers),
		Topic:    cfg.Topic,
		Balancer: &kafka.LeastBytes{},
	}
	log.Info("Kafka 生产者初始化成功")
}

// Publish 将一个事件序列化后发送到 Kafka。
// key 用于分区路由（通常是工作区 ID），event 是 pkg/tasks 中定义的负载。
func Publish(ctx context.Context, key string, event interface{}) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return producer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: payload,
	})
}
