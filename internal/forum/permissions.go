package forum

import "github.com/yungbote/tradeguild-backend/internal/domain"

type Action string

const (
	ActionCreatePost    Action = "create_post"
	ActionReply         Action = "reply"
	ActionLike          Action = "like"
	ActionEditOwnPost   Action = "edit_own_post"
	ActionDeleteOwnPost Action = "delete_own_post"
	ActionModerate      Action = "moderate"
	ActionFeaturePost   Action = "feature_post"
	ActionBanUser       Action = "ban_user"
)

// CanUserPerformAction decides whether u may perform action, optionally on
// target. Banned users and unknown actions are always refused.
func CanUserPerformAction(u *domain.User, action Action, target *domain.Post) bool {
	if u == nil || u.IsBanned {
		return false
	}
	switch action {
	case ActionCreatePost:
		return true
	case ActionReply:
		if target == nil {
			return true
		}
		if target.IsDeleted {
			return false
		}
		return !target.IsLocked || moderates(u, target)
	case ActionLike:
		return target == nil || (!target.IsDeleted && target.AuthorID != u.ID)
	case ActionEditOwnPost:
		return target != nil && target.AuthorID == u.ID && !target.IsDeleted && !target.IsLocked
	case ActionDeleteOwnPost:
		return target != nil && target.AuthorID == u.ID && !target.IsDeleted
	case ActionModerate:
		return moderates(u, target)
	case ActionFeaturePost:
		return hasGlobal(u, domain.RoleAdmin) || hasGlobal(u, domain.RoleModerator)
	case ActionBanUser:
		return hasGlobal(u, domain.RoleAdmin)
	default:
		return false
	}
}

// moderates is true for global admins or moderators, or ones scoped to the
// target's category.
func moderates(u *domain.User, target *domain.Post) bool {
	for _, r := range u.Roles {
		if r.Name != domain.RoleAdmin && r.Name != domain.RoleModerator {
			continue
		}
		if r.Scope == domain.ScopeGlobal || r.Scope == "" {
			return true
		}
		if r.Scope == domain.ScopeCategory && target != nil && r.ScopeID == target.Category {
			return true
		}
	}
	return false
}

func hasGlobal(u *domain.User, name domain.RoleName) bool {
	for _, r := range u.Roles {
		if r.Name == name && (r.Scope == domain.ScopeGlobal || r.Scope == "") {
			return true
		}
	}
	return false
}
