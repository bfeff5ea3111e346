package integration_test

import (
	"context"
	"fmt"

	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

// redisNode is a throwaway redis server shared by a suite.
type redisNode struct {
	container *tcredis.RedisContainer
	addr      string
}

func startRedis(ctx context.Context) (*redisNode, error) {
	container, err := tcredis.Run(ctx, cacheImageName)
	if err != nil {
		return nil, fmt.Errorf("start redis container: %w", err)
	}

	// host:port, the form go-redis expects in Options.Addr
	addr, err := container.Endpoint(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("resolve redis endpoint: %w", err)
	}

	return &redisNode{container: container, addr: addr}, nil
}
