package engine

import (
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/Konsultn-Engineering/dynsql/ast"
	"github.com/Konsultn-Engineering/dynsql/schema"
)

// Prepared is a statement ready for driver-side binding.
type Prepared struct {
	SQL  string
	Args []any
}

// Prepare resolves tpl like Resolve but leaves #{} values to the driver: each
// becomes the dialect's positional placeholder and its value is returned in
// Args. ${} placeholders are still inlined.
func (e *Engine) Prepare(tpl *ast.Template, params []schema.Param, values ...any) (*Prepared, error) {
	bindings, err := e.binder.Bind(params, values...)
	if err != nil {
		return nil, err
	}
	log := e.logger.With(
		zap.String("resolution_id", ulid.Make().String()),
		zap.String("template", tpl.ID),
		zap.String("dialect", e.dialect.Name()),
	)

	ctx, err := e.build(tpl, bindings)
	if err != nil {
		return nil, err
	}
	sql, args, err := e.params.Bind(ctx.SQL(), ctx, e.dialect.Placeholder)
	if err != nil {
		return nil, err
	}
	if sql, err = e.finish(sql, ctx, log); err != nil {
		return nil, err
	}
	log.Debug("template prepared", zap.Int("args", len(args)))
	return &Prepared{SQL: sql, Args: args}, nil
}
