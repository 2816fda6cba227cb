// internal/pkg/redis/client.go
package redis

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
)

// Client 封装了 go-redis 的 UniversalClient，单节点和集群地址都可以直接传入。
type Client struct {
	client goredis.UniversalClient
}

// NewClient 创建客户端并做一次 PING 校验连通性。
func NewClient(ctx context.Context, addrs []string, password string, db int) (*Client, error) {
	if len(addrs) == 0 {
		return nil, fmt.Errorf("redis: no address configured")
	}
	rdb := goredis.NewUniversalClient(&goredis.UniversalOptions{
		Addrs:    addrs,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping %v: %w", addrs, err)
	}
	return &Client{client: rdb}, nil
}

// NewFromUniversal 包装一个已经创建好的客户端。
func NewFromUniversal(rdb goredis.UniversalClient) *Client {
	return &Client{client: rdb}
}

// GetClient 返回底层客户端。
func (c *Client) GetClient() goredis.UniversalClient {
	return c.client
}

func (c *Client) Close() error {
	return c.client.Close()
}

// IsNil 判断错误是否为 key 不存在。
func IsNil(err error) bool {
	return errors.Is(err, goredis.Nil)
}
