// Package relay exposes the read-only Graph API queries the service performs
// on a connected user's behalf. Operations are data: a path template plus the
// query parameters callers are allowed to forward.
package relay

import (
	"sort"
	"strings"
)

// Placeholders substituted into operation paths before dispatch.
const (
	placeholderAccount = "{account}"
	placeholderMedia   = "{media}"
)

const (
	OpProfile              = "profile"
	OpAccountInsights      = "account_insights"
	OpAudienceDemographics = "audience_demographics"
	OpMediaList            = "media_list"
	OpMediaDetail          = "media_detail"
	OpMediaInsights        = "media_insights"
	OpMediaComments        = "media_comments"
	OpStories              = "stories"
	OpHashtagSearch        = "hashtag_search"
)

// Operation describes one relayed query. Fields pins the field selection so
// callers cannot widen what crosses the boundary; Defaults fill in metric
// sets the caller left out; AllowedParams is the forwarding whitelist.
type Operation struct {
	Name           string
	Path           string
	Fields         string
	Defaults       map[string]string
	AllowedParams  []string
	RequiredParams []string
	RequiresMedia  bool
	// AccountParam carries the business account id as a query parameter for
	// operations whose path does not embed it (hashtag search).
	AccountParam string
}

const mediaFields = "id,caption,media_type,media_url,permalink,thumbnail_url,timestamp,like_count,comments_count"

var catalog = map[string]Operation{
	OpProfile: {
		Name:   OpProfile,
		Path:   placeholderAccount,
		Fields: "id,username,name,biography,website,followers_count,follows_count,media_count,profile_picture_url",
	},
	OpAccountInsights: {
		Name: OpAccountInsights,
		Path: placeholderAccount + "/insights",
		Defaults: map[string]string{
			"metric": "impressions,reach,profile_views",
			"period": "day",
		},
		AllowedParams: []string{"metric", "period", "since", "until"},
	},
	OpAudienceDemographics: {
		Name: OpAudienceDemographics,
		Path: placeholderAccount + "/insights",
		Defaults: map[string]string{
			"metric": "audience_city,audience_country,audience_gender_age,audience_locale",
			"period": "lifetime",
		},
		AllowedParams: []string{"metric"},
	},
	OpMediaList: {
		Name:          OpMediaList,
		Path:          placeholderAccount + "/media",
		Fields:        mediaFields,
		AllowedParams: []string{"limit", "after", "before"},
	},
	OpMediaDetail: {
		Name:          OpMediaDetail,
		Path:          placeholderMedia,
		Fields:        mediaFields + ",children{id,media_type,media_url,thumbnail_url}",
		RequiresMedia: true,
	},
	OpMediaInsights: {
		Name: OpMediaInsights,
		Path: placeholderMedia + "/insights",
		Defaults: map[string]string{
			"metric": "engagement,impressions,reach,saved",
		},
		AllowedParams: []string{"metric"},
		RequiresMedia: true,
	},
	OpMediaComments: {
		Name:          OpMediaComments,
		Path:          placeholderMedia + "/comments",
		Fields:        "id,text,username,timestamp,like_count",
		AllowedParams: []string{"limit", "after"},
		RequiresMedia: true,
	},
	OpStories: {
		Name:   OpStories,
		Path:   placeholderAccount + "/stories",
		Fields: mediaFields,
	},
	OpHashtagSearch: {
		Name:           OpHashtagSearch,
		Path:           "ig_hashtag_search",
		AllowedParams:  []string{"q"},
		RequiredParams: []string{"q"},
		AccountParam:   "user_id",
	},
}

// Lookup resolves an operation by name, case-insensitively.
func Lookup(name string) (Operation, bool) {
	op, ok := catalog[strings.TrimSpace(strings.ToLower(name))]
	return op, ok
}

// Names lists the catalog in stable order.
func Names() []string {
	out := make([]string, 0, len(catalog))
	for name := range catalog {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
