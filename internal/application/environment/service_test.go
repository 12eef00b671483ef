package environment

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/chemenv/internal/config"
	domainEnv "github.com/turtacn/chemenv/internal/domain/environment"
	"github.com/turtacn/chemenv/internal/domain/pattern"
	"github.com/turtacn/chemenv/internal/infrastructure/database/memory"
	redisinfra "github.com/turtacn/chemenv/internal/infrastructure/database/redis"
	"github.com/turtacn/chemenv/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/chemenv/internal/testutil"
	pkgerrors "github.com/turtacn/chemenv/pkg/errors"
	"github.com/turtacn/chemenv/pkg/types/common"
	envtypes "github.com/turtacn/chemenv/pkg/types/environment"
)

const (
	anglePattern   = "[#6X3;R1:1]=,:;@[#6X3;R1;a:2](-,:;@[#7])-;!@[#8X2H1;!R:3]"
	torsionPattern = "[#6X4:1]-[#6X4:2]-[#6X4:3]-[#6X4:4]"
	bondPattern    = "[#6X4:1]-[#6X4:2]"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []common.DomainEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, events ...common.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

type countingOracle struct {
	calls atomic.Int32
	err   error
}

func (o *countingOracle) Name() string { return "counting" }

func (o *countingOracle) IsWellFormed(ctx context.Context, smirks string) (bool, error) {
	o.calls.Add(1)
	if o.err != nil {
		return false, o.err
	}
	_, err := pattern.Parse(smirks)
	return err == nil, nil
}

type fixture struct {
	svc    Service
	repo   *memory.EnvironmentRepository
	pub    *recordingPublisher
	oracle *countingOracle
	log    *testutil.MockLogger
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		repo:   memory.NewEnvironmentRepository(),
		pub:    &recordingPublisher{},
		oracle: &countingOracle{},
		log:    testutil.NewMockLogger(),
	}
	base := []Option{WithPublisher(f.pub), WithOracle(f.oracle), WithLocker(memory.NewLocker())}
	f.svc = NewService(f.repo, f.log, append(base, opts...)...)
	return f
}

func (f *fixture) create(t *testing.T, input string) *envtypes.EnvironmentRecord {
	t.Helper()
	rec, err := f.svc.Create(context.Background(), input)
	require.NoError(t, err)
	return rec
}

// ─────────────────────────────────────────────────────────────────────────────
// Analysis
// ─────────────────────────────────────────────────────────────────────────────

func TestAnalyze_Angle(t *testing.T) {
	f := newFixture(t)
	res, err := f.svc.Analyze(context.Background(), "  "+anglePattern+" ")
	require.NoError(t, err)

	assert.Equal(t, anglePattern, res.Pattern)
	assert.Equal(t, anglePattern, res.SMIRKS)
	assert.Equal(t, "[#6X3;R1]=,:;@[#6X3;R1;a](-,:;@[#7])-;!@[#8X2H1;!R]", res.SMARTS)
	assert.Equal(t, "Angle", res.Category)
	assert.True(t, res.WellFormed)

	require.Len(t, res.Atoms, 4)
	hub := res.Atoms[1]
	assert.Equal(t, 2, hub.Label)
	assert.Equal(t, 3, hub.Degree)
	assert.Equal(t, "Indexed", hub.Role)
	assert.Equal(t, "Alpha", res.Atoms[2].Role)
	assert.Equal(t, []string{"a"}, hub.ANDTypes[len(hub.ANDTypes)-1:])

	require.Len(t, res.Bonds, 3)
	assert.Equal(t, 1, res.Bonds[0].Label)
	assert.Equal(t, 1.5, res.Bonds[0].Order)
	assert.Equal(t, [2]int{0, 1}, res.Bonds[0].Atoms)
	assert.Equal(t, "Alpha", res.Bonds[1].Role)
}

func TestAnalyze_Categories(t *testing.T) {
	f := newFixture(t)
	cases := map[string]string{
		"[#6X4:1]":                              "Atom",
		bondPattern:                             "Bond",
		torsionPattern:                          "ProperTorsion",
		"[#6X4:1]-[#6X4:2](-[#6X4:3])-[#6X4:4]": "ImproperTorsion",
		"[#6:1]-[#6:2]-[#6:3]-[#6:4]-[#6:5]":    "Undefined",
	}
	for input, want := range cases {
		res, err := f.svc.Analyze(context.Background(), input)
		require.NoError(t, err, input)
		assert.Equal(t, want, res.Category, input)
	}
}

func TestAnalyze_Failures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Analyze(ctx, "   ")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodePatternEmpty))

	_, err = f.svc.Analyze(ctx, "[*;m:1]")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodePatternDecoratorInvalid))
	var ae *pkgerrors.AppError
	require.True(t, errors.As(err, &ae))
	assert.Contains(t, ae.Detail, "position")

	var pe *pattern.ParseError
	assert.True(t, errors.As(err, &pe), "parse error stays in the chain")

	_, err = f.svc.Analyze(ctx, "[#6:1]-[#6:1]")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodePatternLabelConflict))

	_, err = f.svc.Analyze(ctx, "[#6:1](-[#6]")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodePatternParseFailed))
}

func TestAnalyze_OracleUnavailable(t *testing.T) {
	f := newFixture(t)
	f.oracle.err = errors.New("connection refused")
	_, err := f.svc.Analyze(context.Background(), bondPattern)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodePatternOracleUnavailable))
}

func TestAnalyze_CachesResults(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := redisinfra.NewClient(config.RedisConfig{Addr: mr.Addr()}, logging.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	f := newFixture(t, WithCache(redisinfra.NewRedisCache(client, logging.NewNopLogger()), 0))
	ctx := context.Background()

	first, err := f.svc.Analyze(ctx, torsionPattern)
	require.NoError(t, err)
	second, err := f.svc.Analyze(ctx, " "+torsionPattern)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), f.oracle.calls.Load())
	assert.True(t, mr.Exists("chemenv:cache:"+AnalysisCacheKey(torsionPattern)))

	_, err = f.svc.Analyze(ctx, "[*;m:1]")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodePatternDecoratorInvalid))
}

func TestAnalysisCacheKey(t *testing.T) {
	assert.Equal(t, AnalysisCacheKey(bondPattern), AnalysisCacheKey("\t"+bondPattern+"\n"))
	assert.NotEqual(t, AnalysisCacheKey(bondPattern), AnalysisCacheKey(torsionPattern))
	assert.True(t, strings.HasPrefix(AnalysisCacheKey(bondPattern), "analysis:"))
}

func TestSelect(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Select(ctx, envtypes.SelectRequest{Pattern: anglePattern, Kind: "atom", Descriptor: "Alpha"})
	require.NoError(t, err)
	require.NotNil(t, res.Atom)
	assert.Equal(t, 2, res.Atom.Position)
	assert.Equal(t, "#7", res.Atom.Expression)

	res, err = f.svc.Select(ctx, envtypes.SelectRequest{Pattern: anglePattern, Kind: "bond", Descriptor: "2"})
	require.NoError(t, err)
	require.NotNil(t, res.Bond)
	assert.Equal(t, 2, res.Bond.Label)
	assert.Equal(t, [2]int{1, 3}, res.Bond.Atoms)

	res, err = f.svc.Select(ctx, envtypes.SelectRequest{Pattern: anglePattern, Kind: "atom"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Atom.Label)

	_, err = f.svc.Select(ctx, envtypes.SelectRequest{Pattern: anglePattern, Kind: "atom", Descriptor: "Beta"})
	assert.True(t, pkgerrors.IsNotFound(err))

	_, err = f.svc.Select(ctx, envtypes.SelectRequest{Pattern: anglePattern, Kind: "atom", Descriptor: "Gamma"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodePatternComponentNotFound))

	_, err = f.svc.Select(ctx, envtypes.SelectRequest{Pattern: anglePattern, Kind: "ring"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodePatternDescriptorInvalid))
}

func TestComponents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Components(ctx, envtypes.ComponentsRequest{Pattern: anglePattern, Kind: "atom", Option: "Indexed"})
	require.NoError(t, err)
	assert.Len(t, res.Atoms, 3)

	res, err = f.svc.Components(ctx, envtypes.ComponentsRequest{Pattern: anglePattern, Kind: "atom", Option: "Alpha"})
	require.NoError(t, err)
	assert.Len(t, res.Atoms, 1)

	res, err = f.svc.Components(ctx, envtypes.ComponentsRequest{Pattern: anglePattern, Kind: "bonds"})
	require.NoError(t, err)
	assert.Equal(t, "bond", res.Kind)
	assert.Len(t, res.Bonds, 3)

	res, err = f.svc.Components(ctx, envtypes.ComponentsRequest{Pattern: anglePattern, Kind: "atom", Option: "Beta"})
	require.NoError(t, err)
	assert.Empty(t, res.Atoms)

	_, err = f.svc.Components(ctx, envtypes.ComponentsRequest{Pattern: anglePattern, Kind: "atom", Option: "Gamma"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodePatternDescriptorInvalid))
}

func TestRender(t *testing.T) {
	f := newFixture(t)
	noLabels := false

	res, err := f.svc.Render(context.Background(), envtypes.RenderRequest{Pattern: anglePattern, IncludeLabels: &noLabels})
	require.NoError(t, err)
	assert.False(t, res.IncludeLabels)
	assert.NotContains(t, res.Output, ":1]")

	res, err = f.svc.Render(context.Background(), envtypes.RenderRequest{Pattern: anglePattern})
	require.NoError(t, err)
	assert.Equal(t, anglePattern, res.Output)

	_, err = f.svc.Render(context.Background(), envtypes.RenderRequest{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodePatternEmpty))
}

func TestBatchAnalyze(t *testing.T) {
	f := newFixture(t, WithBatchLimits(2, 3))
	ctx := context.Background()

	res, err := f.svc.BatchAnalyze(ctx, []string{"[#6X4:1]", "[*;m:1]", torsionPattern})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Succeeded)
	assert.Equal(t, 1, res.Failed)
	require.Len(t, res.Items, 3)
	for i, it := range res.Items {
		assert.Equal(t, i, it.Index)
	}
	assert.Equal(t, "Atom", res.Items[0].Result.Category)
	require.NotNil(t, res.Items[1].Error)
	assert.Equal(t, string(pkgerrors.ErrCodePatternDecoratorInvalid), res.Items[1].Error.Code)
	assert.Equal(t, "ProperTorsion", res.Items[2].Result.Category)

	_, err = f.svc.BatchAnalyze(ctx, nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeValidation))

	_, err = f.svc.BatchAnalyze(ctx, []string{"a", "b", "c", "d"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeValidation))
}

func TestBatchAnalyze_Cancelled(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.svc.BatchAnalyze(ctx, []string{bondPattern})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeTimeout))
}

// ─────────────────────────────────────────────────────────────────────────────
// Stored environments
// ─────────────────────────────────────────────────────────────────────────────

func TestCreateGetListDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec := f.create(t, "[#6X4:2]-[#6X4:1]")
	assert.Equal(t, int64(1), rec.Version)
	assert.Equal(t, "Bond", rec.Category)
	assert.Equal(t, bondPattern, rec.SMIRKS)
	other := f.create(t, torsionPattern)

	got, err := f.svc.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.SMIRKS, got.SMIRKS)

	list, err := f.svc.List(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), list.Total)
	require.Len(t, list.Items, 1)
	assert.Contains(t, []string{rec.ID, other.ID}, list.Items[0].ID)

	_, err = f.svc.List(ctx, -1, 10)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeBadRequest))

	require.NoError(t, f.svc.Delete(ctx, rec.ID))
	_, err = f.svc.Get(ctx, rec.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeEnvironmentNotFound))
	assert.True(t, pkgerrors.IsCode(f.svc.Delete(ctx, rec.ID), pkgerrors.ErrCodeEnvironmentNotFound))

	assert.Equal(t, []string{
		domainEnv.EventEnvironmentCreated,
		domainEnv.EventEnvironmentCreated,
		domainEnv.EventEnvironmentDeleted,
	}, f.pub.types())
}

func TestCreate_Invalid(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), "[#6:1")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodePatternParseFailed))
	_, err = f.svc.Create(context.Background(), "")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodePatternEmpty))
	assert.Empty(t, f.pub.types())
}

func TestGet_InvalidID(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Get(context.Background(), "not-a-uuid")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeBadRequest))
}

func TestAddAtom(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec := f.create(t, bondPattern)

	res, err := f.svc.AddAtom(ctx, rec.ID, envtypes.AddAtomRequest{
		Parent:      0,
		BondORTypes: []envtypes.ORTypeSpec{{Primary: "-"}},
		ORTypes:     []envtypes.ORTypeSpec{{Primary: "#8", Decorators: []string{"X2"}}},
		ANDTypes:    []string{"!R"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Record.Version)
	assert.Equal(t, "Bond", res.Record.Category)

	g := pattern.MustParse(res.Record.SMIRKS)
	added, ok := g.AtomAt(res.Position)
	require.True(t, ok)
	assert.Equal(t, "#8X2;!R", added.Expression())

	stored, err := f.svc.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Record.SMIRKS, stored.SMIRKS)

	assert.Equal(t, domainEnv.EventEnvironmentMutated, f.pub.types()[1])
	mutated := f.pub.events[1].(*domainEnv.EnvironmentMutatedEvent)
	assert.Equal(t, domainEnv.OpAddAtom, mutated.Operation)
	assert.Equal(t, int64(2), mutated.Version)
}

func TestAddAtom_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec := f.create(t, bondPattern)

	_, err := f.svc.AddAtom(ctx, rec.ID, envtypes.AddAtomRequest{Parent: 0, Label: 2})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodePatternLabelConflict))
	_, err = f.svc.AddAtom(ctx, rec.ID, envtypes.AddAtomRequest{Parent: 0, Label: -3})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeValidation))

	_, err = f.svc.AddAtom(ctx, rec.ID, envtypes.AddAtomRequest{Parent: 0, ORTypes: []envtypes.ORTypeSpec{{Primary: "m"}}})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodePatternDecoratorInvalid))

	_, err = f.svc.AddAtom(ctx, rec.ID, envtypes.AddAtomRequest{Parent: 0, BondORTypes: []envtypes.ORTypeSpec{{Primary: "#6"}}})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodePatternDecoratorInvalid))

	_, err = f.svc.AddAtom(ctx, rec.ID, envtypes.AddAtomRequest{Parent: 9})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodePatternComponentNotFound))

	_, err = f.svc.AddAtom(ctx, common.NewID().String(), envtypes.AddAtomRequest{Parent: 0})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeEnvironmentNotFound))

	stored, err := f.svc.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.Version)
	assert.Equal(t, bondPattern, stored.SMIRKS)
}

func TestRemoveAtom(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec := f.create(t, "[#6X4:1]-[#6X4:2]-[#8]")

	res, err := f.svc.RemoveAtom(ctx, rec.ID, 0)
	require.NoError(t, err)
	assert.False(t, res.Removed)
	assert.Equal(t, int64(1), res.Record.Version)
	assert.True(t, f.log.HasMessage("info", "Atom removal rejected"))

	res, err = f.svc.RemoveAtom(ctx, rec.ID, 2)
	require.NoError(t, err)
	assert.True(t, res.Removed)
	assert.Equal(t, int64(2), res.Record.Version)
	assert.Equal(t, bondPattern, res.Record.SMIRKS)

	_, err = f.svc.RemoveAtom(ctx, rec.ID, 2)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodePatternComponentNotFound))

	assert.Equal(t, []string{domainEnv.EventEnvironmentCreated, domainEnv.EventEnvironmentMutated}, f.pub.types())
}

func TestAddDecorator(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec := f.create(t, bondPattern)

	out, err := f.svc.AddDecorator(ctx, rec.ID, envtypes.AddDecoratorRequest{Kind: "atom", Position: 0, ANDType: "R"})
	require.NoError(t, err)
	assert.Equal(t, "[#6X4;R:1]-[#6X4:2]", out.SMIRKS)

	out, err = f.svc.AddDecorator(ctx, rec.ID, envtypes.AddDecoratorRequest{Kind: "bond", Position: 0, ORType: &envtypes.ORTypeSpec{Primary: "="}})
	require.NoError(t, err)
	assert.Equal(t, "[#6X4;R:1]-,=[#6X4:2]", out.SMIRKS)
	assert.Equal(t, int64(3), out.Version)
	assert.Equal(t, pattern.CategoryBond.String(), out.Category)

	stored, err := f.svc.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, pattern.CategoryBond.String(), stored.Category)

	_, err = f.svc.AddDecorator(ctx, rec.ID, envtypes.AddDecoratorRequest{Kind: "atom", ANDType: "R", ORType: &envtypes.ORTypeSpec{Primary: "#7"}})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeBadRequest))
	_, err = f.svc.AddDecorator(ctx, rec.ID, envtypes.AddDecoratorRequest{Kind: "atom"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeBadRequest))
	_, err = f.svc.AddDecorator(ctx, rec.ID, envtypes.AddDecoratorRequest{Kind: "bond", Position: 5, ANDType: "@"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodePatternComponentNotFound))
	_, err = f.svc.AddDecorator(ctx, rec.ID, envtypes.AddDecoratorRequest{Kind: "atom", ANDType: "q"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodePatternDecoratorInvalid))
}

func TestMutations_AreSerialized(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec := f.create(t, bondPattern)

	const writers = 10
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.AddDecorator(ctx, rec.ID, envtypes.AddDecoratorRequest{Kind: "atom", Position: 1, ANDType: "R"})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	stored, err := f.svc.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(writers+1), stored.Version)
	assert.Equal(t, writers, strings.Count(stored.SMIRKS, ";R"))
}

func TestPublishFailure_IsLogged(t *testing.T) {
	f := newFixture(t)
	f.pub.err = errors.New("bus down")

	rec, err := f.svc.Create(context.Background(), bondPattern)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.Version)
	assert.True(t, f.log.HasMessage("error", "Failed to publish environment events"))
}

func TestErrorDetail(t *testing.T) {
	d := ErrorDetail(pkgerrors.New(pkgerrors.ErrCodePatternEmpty, "pattern is empty").WithDetail("x"))
	assert.Equal(t, "PAT_002", d.Code)
	assert.Equal(t, "x", d.Detail)

	d = ErrorDetail(errors.New("boom"))
	assert.Equal(t, "COMMON_001", d.Code)
}

//Personal.AI order the ending
