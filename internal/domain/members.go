package domain

import (
	"errors"
)

var (
	ErrMemberNotFound      = errors.New("member not found")
	ErrMemberAlreadyExists = errors.New("member already exists")
	ErrMembersLimitReached = errors.New("members limit reached")
)

type Member struct {
	Id       ConnId `json:"id"`
	Username string `json:"username"`
	IsOwner  bool   `json:"is_owner"`
	Conn     Sender `json:"-"`
}

// Members keeps join order so broadcasts are delivered in a stable order.
type Members struct {
	list  []Member
	limit int
}

// NewMembers creates an empty member list. A limit below 1 means unlimited.
func NewMembers(limit int) *Members {
	return &Members{
		list:  []Member{},
		limit: limit,
	}
}

func (m Members) Length() int {
	return len(m.list)
}

// AsList returns a copy safe to iterate without holding the room lock.
func (m Members) AsList() []Member {
	list := make([]Member, len(m.list))
	copy(list, m.list)
	return list
}

func (m Members) GetById(id ConnId) (Member, int, error) {
	for index, member := range m.list {
		if member.Id == id {
			return member, index, nil
		}
	}

	return Member{}, 0, ErrMemberNotFound
}

func (m *Members) Add(member *Member) error {
	if _, _, err := m.GetById(member.Id); err == nil {
		return ErrMemberAlreadyExists
	}

	if m.limit > 0 && m.Length() >= m.limit {
		return ErrMembersLimitReached
	}

	m.list = append(m.list, *member)
	return nil
}

func (m *Members) RemoveById(id ConnId) (Member, error) {
	member, index, err := m.GetById(id)
	if err != nil {
		return Member{}, err
	}

	m.list = append(m.list[:index], m.list[index+1:]...)
	return member, nil
}
