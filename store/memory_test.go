package store

import (
	"errors"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	token "github.com/simpcl/generic-erc20-token"
)

var (
	account    = common.HexToAddress("0x1111111111111111111111111111111111111111")
	authorizer = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

func nonce32(last byte) [32]byte {
	var n [32]byte
	n[31] = last
	return n
}

func TestNonceStore(t *testing.T) {
	t.Run("starts at zero", func(t *testing.T) {
		s := NewNonceStore()
		if got := s.Nonce(account); got != 0 {
			t.Errorf("expected nonce 0, got %d", got)
		}
	})

	t.Run("consume advances", func(t *testing.T) {
		s := NewNonceStore()
		for i := uint64(0); i < 5; i++ {
			if err := s.Consume(account, i); err != nil {
				t.Fatalf("consume %d: %v", i, err)
			}
		}
		if got := s.Nonce(account); got != 5 {
			t.Errorf("expected nonce 5, got %d", got)
		}
	})

	t.Run("consume rejects stale and future nonces", func(t *testing.T) {
		s := NewNonceStore()
		if err := s.Consume(account, 0); err != nil {
			t.Fatalf("consume: %v", err)
		}
		for _, expected := range []uint64{0, 2, 100} {
			if err := s.Consume(account, expected); !errors.Is(err, token.ErrNonceMismatch) {
				t.Errorf("expected ErrNonceMismatch for %d, got %v", expected, err)
			}
		}
	})

	t.Run("accounts are independent", func(t *testing.T) {
		s := NewNonceStore()
		if err := s.Consume(account, 0); err != nil {
			t.Fatalf("consume: %v", err)
		}
		if got := s.Nonce(authorizer); got != 0 {
			t.Errorf("expected other account at 0, got %d", got)
		}
	})

	t.Run("racing consumers advance exactly once per nonce", func(t *testing.T) {
		s := NewNonceStore()
		var wg sync.WaitGroup
		wins := make(chan struct{}, 16)
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if s.Consume(account, 0) == nil {
					wins <- struct{}{}
				}
			}()
		}
		wg.Wait()
		close(wins)
		count := 0
		for range wins {
			count++
		}
		if count != 1 {
			t.Errorf("expected exactly one winner, got %d", count)
		}
		if got := s.Nonce(account); got != 1 {
			t.Errorf("expected nonce 1 after race, got %d", got)
		}
	})
}

func TestAuthorizationStore(t *testing.T) {
	t.Run("default state is unused", func(t *testing.T) {
		s := NewAuthorizationStore()
		if got := s.State(authorizer, nonce32(1)); got != token.AuthorizationUnused {
			t.Errorf("expected Unused, got %v", got)
		}
	})

	t.Run("mark used", func(t *testing.T) {
		s := NewAuthorizationStore()
		if err := s.MarkUsed(authorizer, nonce32(1)); err != nil {
			t.Fatalf("mark used: %v", err)
		}
		if got := s.State(authorizer, nonce32(1)); got != token.AuthorizationUsed {
			t.Errorf("expected Used, got %v", got)
		}
	})

	t.Run("mark canceled", func(t *testing.T) {
		s := NewAuthorizationStore()
		if err := s.MarkCanceled(authorizer, nonce32(2)); err != nil {
			t.Fatalf("mark canceled: %v", err)
		}
		if got := s.State(authorizer, nonce32(2)); got != token.AuthorizationCanceled {
			t.Errorf("expected Canceled, got %v", got)
		}
	})

	t.Run("used and canceled are absorbing", func(t *testing.T) {
		s := NewAuthorizationStore()
		if err := s.MarkUsed(authorizer, nonce32(1)); err != nil {
			t.Fatalf("mark used: %v", err)
		}
		if err := s.MarkCanceled(authorizer, nonce32(2)); err != nil {
			t.Fatalf("mark canceled: %v", err)
		}

		for _, tc := range []struct {
			name  string
			nonce [32]byte
			mark  func(common.Address, [32]byte) error
		}{
			{"use after use", nonce32(1), s.MarkUsed},
			{"cancel after use", nonce32(1), s.MarkCanceled},
			{"use after cancel", nonce32(2), s.MarkUsed},
			{"cancel after cancel", nonce32(2), s.MarkCanceled},
		} {
			if err := tc.mark(authorizer, tc.nonce); !errors.Is(err, token.ErrAuthorizationConsumed) {
				t.Errorf("%s: expected ErrAuthorizationConsumed, got %v", tc.name, err)
			}
		}
	})

	t.Run("pairs are independent", func(t *testing.T) {
		s := NewAuthorizationStore()
		if err := s.MarkUsed(authorizer, nonce32(1)); err != nil {
			t.Fatalf("mark used: %v", err)
		}
		if got := s.State(authorizer, nonce32(3)); got != token.AuthorizationUnused {
			t.Errorf("other nonce should stay Unused, got %v", got)
		}
		if got := s.State(account, nonce32(1)); got != token.AuthorizationUnused {
			t.Errorf("other authorizer should stay Unused, got %v", got)
		}
	})

	t.Run("racing transitions commit exactly once", func(t *testing.T) {
		s := NewAuthorizationStore()
		var wg sync.WaitGroup
		wins := make(chan token.AuthorizationState, 16)
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				if i%2 == 0 {
					if s.MarkUsed(authorizer, nonce32(9)) == nil {
						wins <- token.AuthorizationUsed
					}
				} else {
					if s.MarkCanceled(authorizer, nonce32(9)) == nil {
						wins <- token.AuthorizationCanceled
					}
				}
			}(i)
		}
		wg.Wait()
		close(wins)

		var winners []token.AuthorizationState
		for w := range wins {
			winners = append(winners, w)
		}
		if len(winners) != 1 {
			t.Fatalf("expected exactly one winning transition, got %d", len(winners))
		}
		if got := s.State(authorizer, nonce32(9)); got != winners[0] {
			t.Errorf("final state %v does not match winner %v", got, winners[0])
		}
	})
}
