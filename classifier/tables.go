package classifier

// Business type categories, highest priority first.
const (
	TypeEnterprise Category = "enterprise"
	TypeBusiness   Category = "business"
	TypeBlog       Category = "blog"
	TypePersonal   Category = "personal"
)

// Business size buckets.
const (
	SizeSmall   Category = "small"
	SizeMedium  Category = "medium"
	SizeLarge   Category = "large"
	SizeMassive Category = "massive"
)

// Minimum scores a type must reach before it can be selected. Calibrated
// empirically against a small set of audited sites.
const (
	EnterpriseFloor = 5
	BusinessFloor   = 3
	BlogFloor       = 3
	PersonalFloor   = 0
)

// Size score thresholds, calibrated the same way.
const (
	MassiveThreshold = 40
	LargeThreshold   = 20
	MediumThreshold  = 10
)

var typePriority = []Category{TypeEnterprise, TypeBusiness, TypeBlog, TypePersonal}

var typeFloors = map[Category]int{
	TypeEnterprise: EnterpriseFloor,
	TypeBusiness:   BusinessFloor,
	TypeBlog:       BlogFloor,
	TypePersonal:   PersonalFloor,
}

// TypeIndicators drives the business type pass. Multi-word enterprise phrases
// carry one point more than single words.
var TypeIndicators = []Indicator{
	{"enterprise", 2, TypeEnterprise},
	{"corporation", 2, TypeEnterprise},
	{"multinational", 2, TypeEnterprise},
	{"shareholders", 2, TypeEnterprise},
	{"subsidiaries", 2, TypeEnterprise},
	{"nasdaq", 2, TypeEnterprise},
	{"nyse", 2, TypeEnterprise},
	{"global leader", 3, TypeEnterprise},
	{"fortune 500", 3, TypeEnterprise},
	{"investor relations", 3, TypeEnterprise},
	{"annual report", 3, TypeEnterprise},
	{"board of directors", 3, TypeEnterprise},
	{"press releases", 3, TypeEnterprise},
	{"global offices", 3, TypeEnterprise},

	{"services", 2, TypeBusiness},
	{"company", 2, TypeBusiness},
	{"clients", 2, TypeBusiness},
	{"customers", 2, TypeBusiness},
	{"solutions", 2, TypeBusiness},
	{"consultation", 2, TypeBusiness},
	{"testimonials", 2, TypeBusiness},
	{"pricing", 2, TypeBusiness},
	{"agency", 2, TypeBusiness},
	{"contact us", 2, TypeBusiness},
	{"get a quote", 2, TypeBusiness},
	{"book an appointment", 2, TypeBusiness},

	// business structure suffixes
	{"ltd", 3, TypeBusiness},
	{"limited", 3, TypeBusiness},
	{"plc", 3, TypeBusiness},
	{"gmbh", 3, TypeBusiness},
	{"llc", 3, TypeBusiness},
	{"llp", 3, TypeBusiness},
	{"inc", 3, TypeBusiness},
	{"corp", 3, TypeBusiness},
	{"pty", 3, TypeBusiness},

	// e-commerce cues
	{"add to cart", 2, TypeBusiness},
	{"add to basket", 2, TypeBusiness},
	{"checkout", 2, TypeBusiness},
	{"shop now", 2, TypeBusiness},
	{"buy now", 2, TypeBusiness},
	{"free shipping", 2, TypeBusiness},
	{"free delivery", 2, TypeBusiness},

	{"blog", 2, TypeBlog},
	{"posted by", 2, TypeBlog},
	{"posted on", 2, TypeBlog},
	{"read more", 2, TypeBlog},
	{"comments", 2, TypeBlog},
	{"subscribe", 2, TypeBlog},
	{"newsletter", 2, TypeBlog},
	{"latest posts", 2, TypeBlog},
	{"archives", 2, TypeBlog},

	{"portfolio", 2, TypePersonal},
	{"about me", 2, TypePersonal},
	{"my name is", 2, TypePersonal},
	{"my blog", 2, TypePersonal},
	{"personal website", 2, TypePersonal},
	{"resume", 2, TypePersonal},
	{"hobby", 2, TypePersonal},
	{"freelancer", 2, TypePersonal},
}

// SizeIndicators drives the business size pass. Small-business cues pull the
// score down.
var SizeIndicators = []Indicator{
	{"headquarters", 5, SizeLarge},
	{"international", 5, SizeLarge},
	{"worldwide", 5, SizeLarge},
	{"stock exchange", 5, SizeLarge},
	{"ftse 100", 5, SizeLarge},
	{"countries", 5, SizeLarge},
	{"thousands of employees", 5, SizeLarge},

	{"offices", 3, SizeMedium},
	{"branches", 3, SizeMedium},
	{"locations", 3, SizeMedium},
	{"nationwide", 3, SizeMedium},
	{"our team", 3, SizeMedium},
	{"employees", 3, SizeMedium},
	{"award-winning", 3, SizeMedium},

	{"family run", -3, SizeSmall},
	{"family-run", -3, SizeSmall},
	{"sole trader", -3, SizeSmall},
	{"small business", -3, SizeSmall},
	{"independent", -3, SizeSmall},
	{"local", -3, SizeSmall},
	{"freelance", -3, SizeSmall},
}

// enterpriseSizeWeight is added to the size score per enterprise vocabulary hit.
const enterpriseSizeWeight = 4

var socialPlatforms = []string{
	"facebook.com", "twitter.com", "x.com", "instagram.com", "linkedin.com",
	"youtube.com", "tiktok.com", "pinterest.com", "pinterest.co.uk", "threads.net",
}

type tier struct {
	over   int
	points int
}

// Checked from the largest threshold down.
var htmlLengthTiers = []tier{{200_000, 15}, {100_000, 10}, {50_000, 5}}

var internalLinkTiers = []tier{{500, 15}, {200, 10}, {100, 5}}

func tierPoints(value int, tiers []tier) int {
	for _, t := range tiers {
		if value > t.over {
			return t.points
		}
	}
	return 0
}
