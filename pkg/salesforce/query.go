package salesforce

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Opportunity represents the subset of the Salesforce Opportunity object the
// rollup engine consumes. Partner and health score live in custom fields.
type Opportunity struct {
	ID          string  `json:"Id"`
	OwnerID     string  `json:"OwnerId"`
	Amount      float64 `json:"Amount"`
	StageName   string  `json:"StageName"`
	Partner     string  `json:"Partner_Account__c"`
	CreatedDate string  `json:"CreatedDate"`
	CloseDate   string  `json:"CloseDate"`
	HealthScore float64 `json:"Health_Score__c"`
	IsClosed    bool    `json:"IsClosed"`
}

// User represents a Salesforce User record in the sales hierarchy.
type User struct {
	ID        string `json:"Id"`
	Name      string `json:"Name"`
	ManagerID string `json:"ManagerId"`
	IsActive  bool   `json:"IsActive"`
}

var opportunityFields = []string{
	"Id", "OwnerId", "Amount", "StageName", "Partner_Account__c",
	"CreatedDate", "CloseDate", "Health_Score__c", "IsClosed",
}

var userFields = []string{"Id", "Name", "ManagerId", "IsActive"}

// soqlTime formats a time as a SOQL datetime literal.
func soqlTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05Z")
}

// FetchOpportunities returns opportunities created or closed in [start, end].
func FetchOpportunities(ctx context.Context, c Client, start, end time.Time) ([]Opportunity, error) {
	soql := fmt.Sprintf(
		"SELECT %s FROM Opportunity WHERE (CreatedDate >= %s AND CreatedDate <= %s) OR (CloseDate >= %s AND CloseDate <= %s)",
		strings.Join(opportunityFields, ", "),
		soqlTime(start), soqlTime(end),
		soqlTime(start), soqlTime(end),
	)

	var opps []Opportunity
	if err := c.Query(ctx, soql, &opps); err != nil {
		return nil, eris.Wrap(err, "sf: fetch opportunities")
	}
	return opps, nil
}

// FetchUsers returns all users, active and inactive. Inactive users stay in
// the directory so historical deals still resolve to a hierarchy node.
func FetchUsers(ctx context.Context, c Client) ([]User, error) {
	soql := fmt.Sprintf("SELECT %s FROM User", strings.Join(userFields, ", "))

	var users []User
	if err := c.Query(ctx, soql, &users); err != nil {
		return nil, eris.Wrap(err, "sf: fetch users")
	}
	return users, nil
}
