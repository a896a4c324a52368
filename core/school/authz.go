package school

import (
	"context"

	"github.com/trezcool/shule/core/user"
)

// Gate answers class-management authorization questions. It is consumed by the
// attendance service so that role checks live in one place instead of being
// sprinkled through handlers.
type Gate struct {
	classes Repository
}

func NewGate(classes Repository) *Gate {
	return &Gate{classes: classes}
}

// OwnsClass reports whether usr is the teacher assigned to the class.
func (g *Gate) OwnsClass(ctx context.Context, usr user.User, classID string) (bool, error) {
	cls, err := g.classes.GetClass(ctx, classID)
	if err != nil {
		return false, err
	}
	return cls.TeacherID == usr.ID, nil
}

// IsAdminOverride reports whether usr may manage any class regardless of ownership.
func (g *Gate) IsAdminOverride(usr user.User) bool {
	return usr.IsAdmin()
}
