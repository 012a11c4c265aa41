package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"smart-vault-backend/internal/config"
	"smart-vault-backend/internal/ledger"
	"smart-vault-backend/internal/models"
)

// RedisHost stores each account as a JSON value under account:<address>.
// Invocations run as optimistic WATCH/MULTI transactions over the declared
// account keys and are retried when another writer gets there first.
type RedisHost struct {
	client     *redis.Client
	prefix     string
	clock      func() time.Time
	maxRetries int
	logger     *slog.Logger
}

func NewRedisHost(ctx context.Context, cfg config.RedisConfig) (*RedisHost, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "failed to connect to redis")
	}

	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = DefaultInvokeRetries
	}
	return &RedisHost{
		client:     client,
		prefix:     cfg.KeyPrefix,
		clock:      time.Now,
		maxRetries: retries,
		logger:     slog.Default().With("component", "redis_host"),
	}, nil
}

func (h *RedisHost) Close() error {
	return h.client.Close()
}

func (h *RedisHost) SetClock(clock func() time.Time) {
	h.clock = clock
}

func (h *RedisHost) accountKey(addr models.Address) string {
	return h.prefix + fmt.Sprintf(KeyAccount, addr)
}

// watchKeys lists each declared account key once.
func (h *RedisHost) watchKeys(addrs []models.Address) []string {
	seen := make(map[models.Address]bool, len(addrs))
	keys := make([]string, 0, len(addrs))
	for _, addr := range addrs {
		if seen[addr] {
			continue
		}
		seen[addr] = true
		keys = append(keys, h.accountKey(addr))
	}
	return keys
}

func (h *RedisHost) Invoke(ctx context.Context, inv ledger.Invocation, fn func(tx *ledger.Tx) error) error {
	keys := h.watchKeys(inv.Accounts)

	for attempt := 0; attempt < h.maxRetries; attempt++ {
		err := h.client.Watch(ctx, func(rtx *redis.Tx) error {
			loaded, err := h.loadAccounts(ctx, rtx, inv.Accounts)
			if err != nil {
				return err
			}
			slot, err := h.client.Incr(ctx, h.prefix+KeySlot).Uint64()
			if err != nil {
				return errors.Wrap(err, "failed to advance slot")
			}

			tx := ledger.NewTx(inv, slot, h.clock(), loaded)
			if err := fn(tx); err != nil {
				return err
			}

			updated, closed := tx.Changes()
			_, err = rtx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				for _, acct := range updated {
					data, err := json.Marshal(acct)
					if err != nil {
						return errors.Wrapf(err, "failed to marshal account %s", acct.Address)
					}
					pipe.Set(ctx, h.accountKey(acct.Address), data, 0)
				}
				for _, addr := range closed {
					pipe.Del(ctx, h.accountKey(addr))
				}
				return nil
			})
			return err
		}, keys...)

		if errors.Is(err, redis.TxFailedErr) {
			h.logger.Debug("invocation conflicted, retrying", "attempt", attempt+1)
			time.Sleep(time.Duration(attempt+1) * DefaultRetryBackoff)
			continue
		}
		return err
	}
	return errors.Errorf("invocation aborted after %d conflicting attempts", h.maxRetries)
}

type getter interface {
	MGet(ctx context.Context, keys ...string) *redis.SliceCmd
}

func (h *RedisHost) loadAccounts(ctx context.Context, r getter, addrs []models.Address) (map[models.Address]*models.Account, error) {
	out := make(map[models.Address]*models.Account, len(addrs))
	if len(addrs) == 0 {
		return out, nil
	}

	keys := make([]string, len(addrs))
	for i, addr := range addrs {
		keys[i] = h.accountKey(addr)
	}
	values, err := r.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load accounts")
	}

	for i, value := range values {
		data, ok := value.(string)
		if !ok {
			continue
		}
		var acct models.Account
		if err := json.Unmarshal([]byte(data), &acct); err != nil {
			return nil, errors.Wrapf(err, "failed to unmarshal account %s", addrs[i])
		}
		out[addrs[i]] = &acct
	}
	return out, nil
}

func (h *RedisHost) Load(ctx context.Context, addrs ...models.Address) (map[models.Address]*models.Account, error) {
	return h.loadAccounts(ctx, h.client, addrs)
}

// Airdrop mints amount into recipient's wallet. Development only.
func (h *RedisHost) Airdrop(ctx context.Context, recipient models.Identity, amount uint64) error {
	addr := models.WalletAddress(recipient)
	key := h.accountKey(addr)

	for attempt := 0; attempt < h.maxRetries; attempt++ {
		err := h.client.Watch(ctx, func(rtx *redis.Tx) error {
			loaded, err := h.loadAccounts(ctx, rtx, []models.Address{addr})
			if err != nil {
				return err
			}
			acct := loaded[addr]
			if acct == nil {
				acct = models.NewWalletAccount(recipient)
			}
			if acct.Lamports, err = creditLamports(acct, amount); err != nil {
				return err
			}
			data, err := json.Marshal(acct)
			if err != nil {
				return errors.Wrap(err, "failed to marshal wallet")
			}
			_, err = rtx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, data, 0)
				return nil
			})
			return err
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return errors.Errorf("airdrop aborted after %d conflicting attempts", h.maxRetries)
}

// Claim implements NonceStore with SETNX, so a token id is spent across
// every replica sharing the server.
func (h *RedisHost) Claim(ctx context.Context, id string, ttl time.Duration) (bool, error) {
	ok, err := h.client.SetNX(ctx, h.prefix+fmt.Sprintf(KeyNonce, id), 1, ttl).Result()
	if err != nil {
		return false, errors.Wrap(err, "failed to record token id")
	}
	return ok, nil
}

// Publish fans committed events out on the ledger events channel so other
// API replicas can forward them to their own subscribers.
func (h *RedisHost) Publish(ctx context.Context, events []models.Event) {
	for _, evt := range events {
		env, err := models.NewEventEnvelope(evt)
		if err != nil {
			h.logger.Error("failed to encode event", "type", evt.EventType(), "error", err)
			continue
		}
		data, err := json.Marshal(env)
		if err != nil {
			h.logger.Error("failed to encode envelope", "type", evt.EventType(), "error", err)
			continue
		}
		if err := h.client.Publish(ctx, h.prefix+ChannelEvents, data).Err(); err != nil {
			h.logger.Error("failed to publish event", "type", evt.EventType(), "error", err)
		}
	}
}

// Subscribe starts delivering envelopes published by any replica. It returns
// once the subscription is live; delivery stops when ctx ends.
func (h *RedisHost) Subscribe(ctx context.Context, deliver func(*models.EventEnvelope)) error {
	sub := h.client.Subscribe(ctx, h.prefix+ChannelEvents)
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return errors.Wrap(err, "failed to subscribe to ledger events")
	}

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var env models.EventEnvelope
				if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
					h.logger.Warn("dropping malformed event", "error", err)
					continue
				}
				deliver(&env)
			}
		}
	}()
	return nil
}
