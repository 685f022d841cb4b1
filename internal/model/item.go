package model

// ItemType identifies which kind of live record a tombstone holds. The set is
// closed: every type must have a registered snapshot codec, a live store and a
// retention entry, all checked at startup.
type ItemType string

const (
	ItemTypeAccount    ItemType = "account"
	ItemTypeJobPosting ItemType = "job_posting"
	ItemTypeChallenge  ItemType = "challenge"
	ItemTypeArticle    ItemType = "article"
	ItemTypeThread     ItemType = "thread"
)

// AllItemTypes lists every known type, in a fixed order.
func AllItemTypes() []ItemType {
	return []ItemType{
		ItemTypeAccount,
		ItemTypeJobPosting,
		ItemTypeChallenge,
		ItemTypeArticle,
		ItemTypeThread,
	}
}

// ParseItemType validates a wire value against the closed set.
func ParseItemType(raw string) (ItemType, error) {
	for _, t := range AllItemTypes() {
		if string(t) == raw {
			return t, nil
		}
	}
	return "", ErrUnknownItemType
}

// ItemRef names a single live record.
type ItemRef struct {
	ItemType ItemType `json:"item_type"`
	ItemID   string   `json:"item_id"`
}

// Account is a platform user account. Its dependency closure covers the
// profile and skill rows it owns exclusively.
type Account struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	AvatarBlob  string `json:"avatar_blob,omitempty"`
	CreatedAt   string `json:"created_at"`
}

type AccountProfile struct {
	AccountID string `json:"account_id"`
	Headline  string `json:"headline"`
	Bio       string `json:"bio"`
	Location  string `json:"location"`
}

type AccountSkill struct {
	AccountID string `json:"account_id"`
	Skill     string `json:"skill"`
	Level     int    `json:"level"`
}

// JobPosting is a published job listing. Tag links reference shared tag rows
// that may vanish independently of the posting.
type JobPosting struct {
	ID          string `json:"id"`
	CompanyID   string `json:"company_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Salary      int64  `json:"salary"`
	CreatedAt   string `json:"created_at"`
}

type JobPostingTag struct {
	PostingID string `json:"posting_id"`
	TagID     string `json:"tag_id"`
}

// Challenge is a coding challenge.
type Challenge struct {
	ID         string `json:"id"`
	AuthorID   string `json:"author_id"`
	Title      string `json:"title"`
	Statement  string `json:"statement"`
	Difficulty string `json:"difficulty"`
	CreatedAt  string `json:"created_at"`
}

// Article is a community article; cover images live in the blob store and are
// referenced by key.
type Article struct {
	ID        string `json:"id"`
	AuthorID  string `json:"author_id"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	CoverBlob string `json:"cover_blob,omitempty"`
	CreatedAt string `json:"created_at"`
}

// Thread is a discussion thread; its comments travel with it.
type Thread struct {
	ID        string `json:"id"`
	AuthorID  string `json:"author_id"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	CreatedAt string `json:"created_at"`
}

type ThreadComment struct {
	ID        string `json:"id"`
	ThreadID  string `json:"thread_id"`
	AuthorID  string `json:"author_id"`
	Body      string `json:"body"`
	CreatedAt string `json:"created_at"`
}
