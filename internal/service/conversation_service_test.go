package service

import (
	"sort"
	"testing"
	"time"

	"lexaid-go/internal/apperr"
	"lexaid-go/internal/model"

	"gorm.io/gorm"
)

// fakeConversationRepo 是 ConversationRepository 的内存实现，
// 与真实实现一样在每个查询上应用所有权过滤。
type fakeConversationRepo struct {
	nextID        uint
	nextMessageID uint
	conversations map[uint]*model.Conversation
	appendErr     error
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{conversations: make(map[uint]*model.Conversation)}
}

func (f *fakeConversationRepo) Create(conv *model.Conversation) error {
	f.nextID++
	conv.ID = f.nextID
	conv.CreatedAt = time.Now()
	conv.UpdatedAt = conv.CreatedAt
	stored := *conv
	f.conversations[conv.ID] = &stored
	return nil
}

func (f *fakeConversationRepo) ListByUser(userID uint) ([]model.ConversationSummary, error) {
	summaries := make([]model.ConversationSummary, 0)
	for _, c := range f.conversations {
		if c.UserID != userID {
			continue
		}
		summaries = append(summaries, model.ConversationSummary{
			ID:        c.ID,
			Title:     c.Title,
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].UpdatedAt.After(summaries[j].UpdatedAt)
	})
	return summaries, nil
}

func (f *fakeConversationRepo) FindByIDAndUser(id, userID uint) (*model.Conversation, error) {
	c, ok := f.conversations[id]
	if !ok || c.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	found := *c
	found.Messages = append([]model.Message(nil), c.Messages...)
	return &found, nil
}

func (f *fakeConversationRepo) DeleteByIDAndUser(id, userID uint) error {
	c, ok := f.conversations[id]
	if !ok || c.UserID != userID {
		return gorm.ErrRecordNotFound
	}
	delete(f.conversations, id)
	return nil
}

func (f *fakeConversationRepo) AppendMessages(id, userID uint, messages []model.Message, newTitle string) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	c, ok := f.conversations[id]
	if !ok || c.UserID != userID {
		return gorm.ErrRecordNotFound
	}
	for i := range messages {
		f.nextMessageID++
		messages[i].ID = f.nextMessageID
		messages[i].ConversationID = id
	}
	c.Messages = append(c.Messages, messages...)
	if newTitle != "" {
		c.Title = newTitle
	}
	c.UpdatedAt = time.Now()
	return nil
}

func TestConversationCreate_DefaultTitle(t *testing.T) {
	svc := NewConversationService(newFakeConversationRepo())

	conv, err := svc.Create(1)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if conv.Title != model.DefaultConversationTitle {
		t.Errorf("expected placeholder title %q, got %q", model.DefaultConversationTitle, conv.Title)
	}
	if conv.UserID != 1 {
		t.Errorf("expected owner 1, got %d", conv.UserID)
	}
	if len(conv.Messages) != 0 {
		t.Errorf("expected empty message list, got %d messages", len(conv.Messages))
	}
}

func TestConversationGet_OwnerScoped(t *testing.T) {
	repo := newFakeConversationRepo()
	svc := NewConversationService(repo)

	conv, err := svc.Create(1)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// 属主可以读取
	if _, err := svc.Get(conv.ID, 1); err != nil {
		t.Errorf("owner Get failed: %v", err)
	}

	// 其他用户得到与"不存在"相同的 NotFound
	_, err = svc.Get(conv.ID, 2)
	if apperr.KindOf(err) != apperr.NotFound {
		t.Errorf("expected NotFound for foreign user, got %v", err)
	}
	_, err = svc.Get(9999, 1)
	if apperr.KindOf(err) != apperr.NotFound {
		t.Errorf("expected NotFound for missing conversation, got %v", err)
	}
}

func TestConversationDelete_OwnerScopedAndIdempotenceError(t *testing.T) {
	repo := newFakeConversationRepo()
	svc := NewConversationService(repo)

	conv, err := svc.Create(1)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// 其他用户不能删除
	if err := svc.Delete(conv.ID, 2); apperr.KindOf(err) != apperr.NotFound {
		t.Errorf("expected NotFound for foreign delete, got %v", err)
	}

	if err := svc.Delete(conv.ID, 1); err != nil {
		t.Fatalf("owner Delete failed: %v", err)
	}

	// 第二次删除返回 NotFound
	if err := svc.Delete(conv.ID, 1); apperr.KindOf(err) != apperr.NotFound {
		t.Errorf("expected NotFound on second delete, got %v", err)
	}
}

func TestConversationList_OnlyOwnersMostRecentFirst(t *testing.T) {
	repo := newFakeConversationRepo()
	svc := NewConversationService(repo)

	first, _ := svc.Create(1)
	second, _ := svc.Create(1)
	foreign, _ := svc.Create(2)

	// 向第一个对话追加消息使其成为最近更新的
	time.Sleep(5 * time.Millisecond)
	if err := repo.AppendMessages(first.ID, 1, []model.Message{
		{Role: model.RoleUser, Content: "hello"},
		{Role: model.RoleAssistant, Content: "hi"},
	}, ""); err != nil {
		t.Fatalf("AppendMessages failed: %v", err)
	}

	summaries, err := svc.List(1)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected 2 conversations, got %d", len(summaries))
	}
	if summaries[0].ID != first.ID || summaries[1].ID != second.ID {
		t.Errorf("expected order [%d %d], got [%d %d]", first.ID, second.ID, summaries[0].ID, summaries[1].ID)
	}
	for _, s := range summaries {
		if s.ID == foreign.ID {
			t.Error("foreign conversation leaked into list")
		}
	}

	// 删除后从列表中消失
	if err := svc.Delete(first.ID, 1); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	summaries, _ = svc.List(1)
	if len(summaries) != 1 || summaries[0].ID != second.ID {
		t.Errorf("expected only conversation %d after delete, got %+v", second.ID, summaries)
	}
}
