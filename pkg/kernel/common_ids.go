package kernel

type UserID string

func NewUserID(id string) UserID { return UserID(id) }
func (u UserID) String() string  { return string(u) }
func (u UserID) IsEmpty() bool   { return string(u) == "" }

type TenantID string

func NewTenantID(id string) TenantID { return TenantID(id) }
func (t TenantID) String() string    { return string(t) }
func (t TenantID) IsEmpty() bool     { return string(t) == "" }

type InvitationID string

func NewInvitationID(id string) InvitationID { return InvitationID(id) }
func (i InvitationID) String() string        { return string(i) }
func (i InvitationID) IsEmpty() bool         { return string(i) == "" }

// SessionID identifies one browser session within a single domain scope.
// The same SessionID value under two different scopes names two unrelated
// sessions; scoping is the store's job, not the ID's.
type SessionID string

func NewSessionID(id string) SessionID { return SessionID(id) }
func (s SessionID) String() string     { return string(s) }
func (s SessionID) IsEmpty() bool      { return string(s) == "" }
