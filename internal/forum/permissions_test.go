package forum

import (
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/tradeguild-backend/internal/domain"
)

func TestCanUserPerformAction(t *testing.T) {
	member := &domain.User{ID: uuid.New(), Roles: []domain.Role{{Name: domain.RoleMember, Scope: domain.ScopeGlobal}}}
	other := &domain.User{ID: uuid.New()}
	banned := &domain.User{ID: uuid.New(), IsBanned: true, Roles: []domain.Role{{Name: domain.RoleAdmin, Scope: domain.ScopeGlobal}}}
	admin := &domain.User{ID: uuid.New(), Roles: []domain.Role{{Name: domain.RoleAdmin, Scope: domain.ScopeGlobal}}}
	globalMod := &domain.User{ID: uuid.New(), Roles: []domain.Role{{Name: domain.RoleModerator, Scope: domain.ScopeGlobal}}}
	catMod := &domain.User{ID: uuid.New(), Roles: []domain.Role{{Name: domain.RoleModerator, Scope: domain.ScopeCategory, ScopeID: "futures"}}}
	mentor := &domain.User{ID: uuid.New(), Roles: []domain.Role{{Name: domain.RoleMentor, Scope: domain.ScopeSquad, ScopeID: "alpha"}}}

	own := &domain.Post{AuthorID: member.ID, Category: "futures"}
	locked := &domain.Post{AuthorID: member.ID, Category: "futures", IsLocked: true}
	deleted := &domain.Post{AuthorID: member.ID, Category: "futures", IsDeleted: true}
	elsewhere := &domain.Post{AuthorID: other.ID, Category: "forex"}

	cases := []struct {
		name   string
		user   *domain.User
		action Action
		target *domain.Post
		want   bool
	}{
		{"nil_user", nil, ActionCreatePost, nil, false},
		{"banned_admin", banned, ActionBanUser, nil, false},
		{"member_create", member, ActionCreatePost, nil, true},
		{"member_reply", member, ActionReply, elsewhere, true},
		{"member_reply_locked", other, ActionReply, locked, false},
		{"mod_reply_locked", catMod, ActionReply, locked, true},
		{"reply_deleted", admin, ActionReply, deleted, false},
		{"like_other", other, ActionLike, own, true},
		{"like_self", member, ActionLike, own, false},
		{"edit_own", member, ActionEditOwnPost, own, true},
		{"edit_own_locked", member, ActionEditOwnPost, locked, false},
		{"edit_foreign", other, ActionEditOwnPost, own, false},
		{"edit_without_target", member, ActionEditOwnPost, nil, false},
		{"delete_own", member, ActionDeleteOwnPost, own, true},
		{"delete_already_deleted", member, ActionDeleteOwnPost, deleted, false},
		{"member_moderate", member, ActionModerate, own, false},
		{"global_mod_moderate", globalMod, ActionModerate, elsewhere, true},
		{"category_mod_in_scope", catMod, ActionModerate, own, true},
		{"category_mod_out_of_scope", catMod, ActionModerate, elsewhere, false},
		{"category_mod_no_target", catMod, ActionModerate, nil, false},
		{"mentor_moderate", mentor, ActionModerate, own, false},
		{"global_mod_feature", globalMod, ActionFeaturePost, own, true},
		{"category_mod_feature", catMod, ActionFeaturePost, own, false},
		{"admin_ban", admin, ActionBanUser, nil, true},
		{"mod_ban", globalMod, ActionBanUser, nil, false},
		{"unknown_action", admin, Action("nuke"), nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanUserPerformAction(tc.user, tc.action, tc.target); got != tc.want {
				t.Fatalf("CanUserPerformAction(%s)=%v, want %v", tc.action, got, tc.want)
			}
		})
	}
}
