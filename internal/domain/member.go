package domain

// Member is a user's presence record inside one room.
// No transport or lifecycle logic here.
type Member struct {
	UserID    UserID `json:"userId"`
	Username  string `json:"username"`
	Conn      ConnID `json:"-"`
	Anonymous bool   `json:"anonymous,omitempty"`
}

// NewMember avoids raw literals in adapters and keeps construction obvious.
func NewMember(user *User, conn ConnID) Member {
	if !user.Identified() {
		return Member{UserID: AnonymousID(conn), Username: user.Username, Conn: conn, Anonymous: true}
	}
	return Member{UserID: user.ID, Username: user.Username, Conn: conn}
}
