package collision

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"sagelink/internal/logging"
	"sagelink/internal/state"
)

// Store is the slice of the state store the resolver needs.
type Store interface {
	Entry(id string) (state.Entry, bool)
	Claimants(bare string) []string
	HasClaim(bare, id string) bool
	CommitClaims(ctx context.Context, claims []state.Claim, dropped []string) error
}

// ArtifactRemover deletes the artifact pair an entry points at.
type ArtifactRemover interface {
	RemoveEntry(ctx context.Context, entry state.Entry) error
}

// Decision is the outcome of resolving one record.
type Decision struct {
	// Filename is the finalized name without extension.
	Filename string
	// Collided is true when Filename is identifier-qualified.
	Collided bool
	// Detected is true when this call discovered a new collision.
	Detected bool
	// Requalify lists records whose bare-named artifacts were removed and
	// that must be projected again under their qualified names.
	Requalify []string
}

// Resolver finalizes globally unique filenames.
type Resolver struct {
	store   Store
	remover ArtifactRemover
	logger  *slog.Logger
}

// NewResolver builds a resolver over store. remover deletes artifacts of
// records that must move to a qualified name.
func NewResolver(store Store, remover ArtifactRemover, logger *slog.Logger) *Resolver {
	return &Resolver{
		store:   store,
		remover: remover,
		logger:  logging.NewComponentLogger(logger, "collision"),
	}
}

// Qualify returns the identifier-qualified form of bare.
func Qualify(bare, id string) string {
	return bare + " - " + id
}

// qualifiedName returns the first of Qualify(bare, id), "<that> (2)",
// "<that> (3)", ... that no other record claims, counting the claims still
// pending in this resolution. Claims only ever grow, so repeat calls for the
// same record land on the same name.
func (r *Resolver) qualifiedName(bare, id string, pending []state.Claim) string {
	base := Qualify(bare, id)
	for n := 1; ; n++ {
		name := base
		if n > 1 {
			name = fmt.Sprintf("%s (%d)", base, n)
		}
		if !claimedByOther(r.store.Claimants(name), pending, name, id) {
			return name
		}
	}
}

func claimedByOther(claimants []string, pending []state.Claim, name, id string) bool {
	for _, c := range claimants {
		if c != id {
			return true
		}
	}
	for _, c := range pending {
		if c.BareName == name && c.RecordID != id {
			return true
		}
	}
	return false
}

// Resolve maps (id, bare) to a finalized filename.
//
// A record that already has a finalized name keeps it. Otherwise the claims
// for bare decide: a sole claimant gets bare; any other claimant forces this
// record onto a qualified name and moves every still-bare claimant onto its
// qualified name too, removing its bare-named artifacts first. A qualified
// name some other record already holds is extended with a counter. Claims and
// requalifications are persisted before Resolve returns.
func (r *Resolver) Resolve(ctx context.Context, id, bare string) (Decision, error) {
	if entry, ok := r.store.Entry(id); ok && entry.Filename != "" {
		return Decision{Filename: entry.Filename, Collided: entry.Collided}, nil
	}

	claimants := r.store.Claimants(bare)
	others := slices.DeleteFunc(slices.Clone(claimants), func(c string) bool { return c == id })

	var claims []state.Claim
	if !slices.Contains(claimants, id) {
		claims = append(claims, state.Claim{BareName: bare, RecordID: id})
	}

	if len(others) == 0 {
		if err := r.store.CommitClaims(ctx, claims, nil); err != nil {
			return Decision{}, err
		}
		return Decision{Filename: bare}, nil
	}

	qualified := r.qualifiedName(bare, id, claims)
	if !r.store.HasClaim(qualified, id) {
		claims = append(claims, state.Claim{BareName: qualified, RecordID: id})
	}

	var requalify []string
	for _, other := range others {
		entry, ok := r.store.Entry(other)
		if !ok || entry.Collided || entry.Filename != bare {
			continue
		}
		// Bare-named artifacts must be gone before the qualified pair exists.
		if err := r.remover.RemoveEntry(ctx, entry); err != nil {
			return Decision{}, fmt.Errorf("requalify %s: remove bare artifacts: %w", other, err)
		}
		requalify = append(requalify, other)
		otherQualified := r.qualifiedName(bare, other, claims)
		if !r.store.HasClaim(otherQualified, other) {
			claims = append(claims, state.Claim{BareName: otherQualified, RecordID: other})
		}
	}

	if err := r.store.CommitClaims(ctx, claims, requalify); err != nil {
		return Decision{}, err
	}

	// Only the second claimant joining is a new collision; later claimants
	// and repeat resolutions are already recorded.
	detected := len(claimants) == 1 && claimants[0] != id
	if detected {
		logging.WarnWithContext(logging.WithContext(ctx, r.logger), "filename collision; records moved to qualified names",
			"collision_detected",
			logging.String("bare_name", bare),
			logging.Any("record_ids", append(slices.Clone(others), id)),
			logging.Int("requalified", len(requalify)),
			logging.String(logging.FieldImpact, "both records now carry an identifier suffix"),
			logging.String(logging.FieldErrorHint, "retitle one recording in SageTV if the suffix is unwanted"),
		)
	}
	return Decision{Filename: qualified, Collided: true, Detected: detected, Requalify: requalify}, nil
}
