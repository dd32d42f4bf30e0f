package tenant

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/frahmantamala/gym-management/internal"
)

// Guard runs raw SQL through sqlx with the tenant predicate appended.
type Guard struct {
	db *sqlx.DB
}

func NewGuard(db *sqlx.DB) *Guard {
	return &Guard{db: db}
}

var (
	whereKeyword   = regexp.MustCompile(`(?i)\bWHERE\b`)
	trailingClause = regexp.MustCompile(`(?i)\b(ORDER\s+BY|GROUP\s+BY|HAVING|LIMIT|OFFSET|UNION)\b`)
)

// ErrUnscopableQuery is returned for bases the tenant predicate cannot be
// appended to safely.
var ErrUnscopableQuery = errors.New("tenant: query cannot be scoped")

// ScopedQuery appends "<column> = ?" to base. An existing WHERE predicate is
// parenthesised so OR branches stay inside the tenant. Bases with trailing
// clauses or more than one WHERE are rejected.
func ScopedQuery(ctx context.Context, column, base string, args ...interface{}) (string, []interface{}, error) {
	companyID, err := Require(ctx)
	if err != nil {
		return "", nil, err
	}
	if column == "" {
		column = DefaultColumn
	}

	query := strings.TrimRight(strings.TrimSpace(base), "; \t\r\n")
	if trailingClause.MatchString(query) {
		return "", nil, fmt.Errorf("%w: trailing clause in %q", ErrUnscopableQuery, query)
	}

	switch loc := whereKeyword.FindAllStringIndex(query, -1); len(loc) {
	case 0:
		query += " WHERE " + column + " = ?"
	case 1:
		head := strings.TrimSpace(query[:loc[0][0]])
		predicate := strings.TrimSpace(query[loc[0][1]:])
		if predicate == "" {
			return "", nil, fmt.Errorf("%w: empty WHERE in %q", ErrUnscopableQuery, query)
		}
		query = head + " WHERE (" + predicate + ") AND " + column + " = ?"
	default:
		return "", nil, fmt.Errorf("%w: nested WHERE in %q", ErrUnscopableQuery, query)
	}

	scopedArgs := make([]interface{}, 0, len(args)+1)
	scopedArgs = append(scopedArgs, args...)
	scopedArgs = append(scopedArgs, companyID)
	return query, scopedArgs, nil
}

func (g *Guard) Select(ctx context.Context, dest interface{}, column, base string, args ...interface{}) error {
	query, scopedArgs, err := ScopedQuery(ctx, column, base, args...)
	if err != nil {
		return err
	}
	return g.db.SelectContext(ctx, dest, g.db.Rebind(query), scopedArgs...)
}

// Get maps a missing row to NotFound, including rows owned by another company.
func (g *Guard) Get(ctx context.Context, dest interface{}, column, base string, args ...interface{}) error {
	query, scopedArgs, err := ScopedQuery(ctx, column, base, args...)
	if err != nil {
		return err
	}
	if err := g.db.GetContext(ctx, dest, g.db.Rebind(query), scopedArgs...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return internal.NewNotFoundError("resource not found", internal.ErrCodeNotFound)
		}
		return err
	}
	return nil
}
