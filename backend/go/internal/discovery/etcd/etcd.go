package etcd

import (
	"context"
	"fmt"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
)

const keyPrefix = "/services/"

// ServiceRegistry 使用 etcd 租约注册服务实例，供网关或其他服务发现。
type ServiceRegistry struct {
	cli *clientv3.Client
}

// NewServiceRegistry 连接到 etcd。
func NewServiceRegistry(endpoints []string) (*ServiceRegistry, error) {
	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   endpoints,
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("连接 etcd 失败: %w", err)
	}
	return &ServiceRegistry{cli: cli}, nil
}

// ServiceKey 返回服务实例在 etcd 中的键。
func ServiceKey(serviceName, addr string) string {
	return keyPrefix + serviceName + "/" + addr
}

// Register 以 ttl 秒的租约注册服务实例并持续续约。
// 关闭返回的通道会停止续约并删除注册。
func (s *ServiceRegistry) Register(ctx context.Context, serviceName, addr string, ttl int64) (chan<- struct{}, error) {
	leaseResp, err := s.cli.Grant(ctx, ttl)
	if err != nil {
		return nil, fmt.Errorf("申请 etcd 租约失败: %w", err)
	}

	key := ServiceKey(serviceName, addr)
	if _, err := s.cli.Put(ctx, key, addr, clientv3.WithLease(leaseResp.ID)); err != nil {
		return nil, fmt.Errorf("注册服务失败: %w", err)
	}

	keepAliveCh, err := s.cli.KeepAlive(context.Background(), leaseResp.ID)
	if err != nil {
		return nil, fmt.Errorf("续约失败: %w", err)
	}

	stop := make(chan struct{})
	go func() {
		for {
			select {
			case <-stop:
				s.deregister(key)
				return
			case _, ok := <-keepAliveCh:
				if !ok {
					s.deregister(key)
					return
				}
			}
		}
	}()

	return stop, nil
}

func (s *ServiceRegistry) deregister(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	s.cli.Delete(ctx, key)
}

// Discover 返回某个服务当前注册的所有地址。
func (s *ServiceRegistry) Discover(ctx context.Context, serviceName string) ([]string, error) {
	resp, err := s.cli.Get(ctx, keyPrefix+serviceName+"/", clientv3.WithPrefix())
	if err != nil {
		return nil, err
	}
	var addrs []string
	for _, kv := range resp.Kvs {
		addrs = append(addrs, string(kv.Value))
	}
	return addrs, nil
}

// Close 关闭 etcd 客户端。
func (s *ServiceRegistry) Close() error {
	return s.cli.Close()
}
