package model

// Closure bundles a primary live record with the dependency closure that must
// travel with it through capture and restore. One concrete closure type per
// ItemType; the snapshot codecs and live stores switch on the concrete type.
type Closure interface {
	ItemType() ItemType
	PrimaryID() string
	DependentCount() int
}

type AccountClosure struct {
	Account Account         `json:"account"`
	Profile *AccountProfile `json:"profile,omitempty"`
	Skills  []AccountSkill  `json:"skills,omitempty"`
}

func (c AccountClosure) ItemType() ItemType { return ItemTypeAccount }
func (c AccountClosure) PrimaryID() string  { return c.Account.ID }

func (c AccountClosure) DependentCount() int {
	n := len(c.Skills)
	if c.Profile != nil {
		n++
	}
	return n
}

type JobPostingClosure struct {
	Posting JobPosting      `json:"posting"`
	Tags    []JobPostingTag `json:"tags,omitempty"`
}

func (c JobPostingClosure) ItemType() ItemType  { return ItemTypeJobPosting }
func (c JobPostingClosure) PrimaryID() string   { return c.Posting.ID }
func (c JobPostingClosure) DependentCount() int { return len(c.Tags) }

type ChallengeClosure struct {
	Challenge Challenge `json:"challenge"`
}

func (c ChallengeClosure) ItemType() ItemType  { return ItemTypeChallenge }
func (c ChallengeClosure) PrimaryID() string   { return c.Challenge.ID }
func (c ChallengeClosure) DependentCount() int { return 0 }

type ArticleClosure struct {
	Article Article `json:"article"`
}

func (c ArticleClosure) ItemType() ItemType  { return ItemTypeArticle }
func (c ArticleClosure) PrimaryID() string   { return c.Article.ID }
func (c ArticleClosure) DependentCount() int { return 0 }

type ThreadClosure struct {
	Thread   Thread          `json:"thread"`
	Comments []ThreadComment `json:"comments,omitempty"`
}

func (c ThreadClosure) ItemType() ItemType  { return ItemTypeThread }
func (c ThreadClosure) PrimaryID() string   { return c.Thread.ID }
func (c ThreadClosure) DependentCount() int { return len(c.Comments) }
