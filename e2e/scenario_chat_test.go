package e2e

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/stretchr/testify/suite"
)

type testChatSuite struct {
	BaseGrpcSuite
}

func TestChatSuite(t *testing.T) {
	suite.Run(t, &testChatSuite{})
}

type inbox struct {
	mu       sync.Mutex
	messages []domain.Message
}

func (i *inbox) add(m domain.Message) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.messages = append(i.messages, m)
}

func (i *inbox) contains(from, text string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	for _, m := range i.messages {
		if m.From == from && m.Text == text {
			return true
		}
	}
	return false
}

func (s *testChatSuite) TestFullChatFlow() {
	// Unique names so the scenario can run against a shared relay
	suffix := uuid.NewString()[:8]
	alice, bob := "alice-"+suffix, "bob-"+suffix
	text := fmt.Sprintf("hello from %s", alice)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	aliceClient := s.Client(s.T(), "Connect alice", alice)
	bobClient := s.Client(s.T(), "Connect bob", bob)
	bobInbox := &inbox{}
	go func() { _ = aliceClient.Listen(ctx, func(domain.Message) {}) }()
	go func() { _ = bobClient.Listen(ctx, bobInbox.add) }()

	s.Run("Step 1: both users are online", func() {
		s.Eventually(func() bool {
			online, err := aliceClient.Online(ctx)
			return err == nil && lo.Contains(online, alice) && lo.Contains(online, bob)
		}, 5*time.Second, 50*time.Millisecond)
	})

	s.Run("Step 2: broadcast reaches bob", func() {
		s.Require().NoError(aliceClient.Send(ctx, domain.Everyone, text))
		s.Eventually(func() bool { return bobInbox.contains(alice, text) }, 5*time.Second, 50*time.Millisecond)
	})

	s.Run("Step 3: history holds the broadcast", func() {
		limit := 50
		history, err := bobClient.History(ctx, &limit)
		s.Require().NoError(err)
		found := false
		for _, m := range history {
			found = found || (m.From == alice && m.Text == text)
		}
		s.True(found)
	})

	s.Run("Step 4: unregister then unknown recipient", func() {
		s.Require().NoError(aliceClient.Unregister(ctx))
		err := bobClient.Send(ctx, alice, "still there?")
		s.ErrorIs(err, errors.ErrRecipientNotFound)
	})
}
