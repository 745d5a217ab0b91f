package serializer

import (
	"context"
	"fmt"
	"time"

	"github.com/dangerclosesec/studygroups/internal/model"
	"github.com/dangerclosesec/studygroups/internal/repository"
	"github.com/dangerclosesec/studygroups/internal/service"
	"github.com/google/uuid"
)

type UserView struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	AboutMe string    `json:"about_me"`
}

type GroupView struct {
	ID          uuid.UUID     `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	CourseID    string        `json:"course_id"`
	Privacy     model.Privacy `json:"privacy"`
	HasPasskey  bool          `json:"has_passkey"`
	Passkey     *string       `json:"passkey,omitempty" szlr:"scope:admin"`
	MemberLimit int           `json:"member_limit"`
	MemberCount int64         `json:"member_count"`
	CallerRole  model.Role    `json:"caller_role"`
	Creator     UserView      `json:"creator"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

type MemberView struct {
	User     UserView   `json:"user"`
	Role     model.Role `json:"role"`
	JoinedAt time.Time  `json:"joined_at"`
}

type RequestView struct {
	ID        uuid.UUID               `json:"id"`
	GroupID   uuid.UUID               `json:"group_id"`
	User      UserView                `json:"user"`
	Status    model.JoinRequestStatus `json:"status"`
	CreatedAt time.Time               `json:"created_at"`
}

// Presenter turns engine results into the JSON views served by the API. It resolves
// display names and "about me" text for every user a view mentions.
type Presenter struct {
	users    repository.UserRepositoryIface
	profiles repository.ProfileRepositoryIface
}

func NewPresenter(users repository.UserRepositoryIface, profiles repository.ProfileRepositoryIface) *Presenter {
	return &Presenter{users: users, profiles: profiles}
}

func (p *Presenter) Group(ctx context.Context, summary *service.GroupSummary) (*GroupView, error) {
	views, err := p.Groups(ctx, []*service.GroupSummary{summary})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

func (p *Presenter) Groups(ctx context.Context, summaries []*service.GroupSummary) ([]*GroupView, error) {
	ids := make([]uuid.UUID, 0, len(summaries))
	for _, s := range summaries {
		ids = append(ids, s.Group.CreatedByID)
	}
	people, err := p.resolve(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]*GroupView, 0, len(summaries))
	for _, s := range summaries {
		g := s.Group
		view := &GroupView{
			ID:          g.ID,
			Name:        g.Name,
			Description: g.Description,
			CourseID:    g.CourseID,
			Privacy:     g.Privacy,
			HasPasskey:  s.HasPasskey,
			Passkey:     g.Passkey,
			MemberLimit: g.MemberLimit,
			MemberCount: s.MemberCount,
			CallerRole:  s.CallerRole,
			Creator:     people.view(g.CreatedByID),
			CreatedAt:   g.CreatedAt,
			UpdatedAt:   g.UpdatedAt,
		}
		Scrub(view, s.CallerRole)
		views = append(views, view)
	}
	return views, nil
}

func (p *Presenter) Members(ctx context.Context, members []*model.Membership) ([]*MemberView, error) {
	ids := make([]uuid.UUID, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.UserID)
	}
	people, err := p.resolve(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]*MemberView, 0, len(members))
	for _, m := range members {
		views = append(views, &MemberView{
			User:     people.view(m.UserID),
			Role:     m.Role,
			JoinedAt: m.JoinedAt,
		})
	}
	return views, nil
}

func (p *Presenter) Member(ctx context.Context, member *model.Membership) (*MemberView, error) {
	views, err := p.Members(ctx, []*model.Membership{member})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

func (p *Presenter) Requests(ctx context.Context, requests []*model.JoinRequest) ([]*RequestView, error) {
	ids := make([]uuid.UUID, 0, len(requests))
	for _, r := range requests {
		ids = append(ids, r.UserID)
	}
	people, err := p.resolve(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]*RequestView, 0, len(requests))
	for _, r := range requests {
		views = append(views, &RequestView{
			ID:        r.ID,
			GroupID:   r.GroupID,
			User:      people.view(r.UserID),
			Status:    r.Status,
			CreatedAt: r.CreatedAt,
		})
	}
	return views, nil
}

type directory struct {
	names    map[uuid.UUID]string
	aboutMes map[uuid.UUID]string
}

func (d directory) view(id uuid.UUID) UserView {
	return UserView{ID: id, Name: d.names[id], AboutMe: d.aboutMes[id]}
}

// resolve batches the user and profile lookups for ids. Unknown users render with empty fields.
func (p *Presenter) resolve(ctx context.Context, ids []uuid.UUID) (directory, error) {
	d := directory{
		names:    make(map[uuid.UUID]string, len(ids)),
		aboutMes: make(map[uuid.UUID]string, len(ids)),
	}
	if len(ids) == 0 {
		return d, nil
	}
	ids = dedupe(ids)

	users, err := p.users.FindByIDs(ctx, ids)
	if err != nil {
		return d, fmt.Errorf("resolving users: %w", err)
	}
	for _, u := range users {
		d.names[u.ID] = u.Name
	}

	profiles, err := p.profiles.FindByUserIDs(ctx, ids)
	if err != nil {
		return d, fmt.Errorf("resolving profiles: %w", err)
	}
	for _, pr := range profiles {
		d.aboutMes[pr.UserID] = pr.AboutMe
	}

	return d, nil
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
