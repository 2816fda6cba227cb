package mq

import (
	"context"
	"strconv"

	"github.com/segmentio/kafka-go"
)

// 消息头约定
const (
	HeaderEventType         = "event-type"
	HeaderOriginalTopic     = "dlt-original-topic"
	HeaderOriginalPartition = "dlt-original-partition"
	HeaderOriginalOffset    = "dlt-original-offset"
	HeaderExceptionMessage  = "dlt-exception-message"
)

// SendToDeadLetter 把处理失败的消息原样转发到死信 topic，并附上来源位置和失败原因。
func SendToDeadLetter(ctx context.Context, writer MessageWriter, msg kafka.Message, cause error) error {
	headers := make([]kafka.Header, 0, len(msg.Headers)+4)
	headers = append(headers, msg.Headers...)
	headers = append(headers,
		kafka.Header{Key: HeaderOriginalTopic, Value: []byte(msg.Topic)},
		kafka.Header{Key: HeaderOriginalPartition, Value: []byte(strconv.Itoa(msg.Partition))},
		kafka.Header{Key: HeaderOriginalOffset, Value: []byte(strconv.FormatInt(msg.Offset, 10))},
	)
	if cause != nil {
		headers = append(headers, kafka.Header{Key: HeaderExceptionMessage, Value: []byte(cause.Error())})
	}
	return writer.WriteMessages(ctx, kafka.Message{Key: msg.Key, Value: msg.Value, Headers: headers})
}

// HeaderValue 返回第一个同名消息头的值。
func HeaderValue(headers []kafka.Header, key string) string {
	for _, h := range headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
