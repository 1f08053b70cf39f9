// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package dependency // import "go.opentelemetry.io/dependency-collector/dependency"

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"go.opentelemetry.io/dependency-collector/operation"
	"go.opentelemetry.io/dependency-collector/reporter"
	"go.opentelemetry.io/dependency-collector/vc"
)

// CommandType tells how the text of a Command is interpreted.
type CommandType int

const (
	CommandTypeText CommandType = iota
	CommandTypeStoredProcedure
)

// Command is a single SQL command execution.
type Command struct {
	// DataSource is the server or file the connection points at.
	DataSource string
	Database   string
	// Text is the statement, or the procedure name for stored procedures.
	Text string
	Type CommandType
}

// ResourceName returns "dataSource | database", followed by " | procedure" for
// stored procedure calls.
func (cmd *Command) ResourceName() string {
	if cmd == nil {
		return ""
	}
	parts := []string{cmd.DataSource, cmd.Database}
	if cmd.Type == CommandTypeStoredProcedure && cmd.Text != "" {
		parts = append(parts, cmd.Text)
	}
	return strings.Join(parts, " | ")
}

// coder is implemented by driver errors that carry a numeric error code.
type coder interface {
	Code() int
}

// SQLProcessing correlates SQL commands. Commands are keyed by the identity of
// their *Command and are never purged.
type SQLProcessing struct {
	c correlator[*Command]
}

// NewSQLProcessing returns a processor storing pending commands in table.
func NewSQLProcessing(table *operation.Table[Command], rep reporter.DependencyReporter) *SQLProcessing {
	return &SQLProcessing{
		c: correlator[*Command]{
			holder:     tableHolder[Command]{table: table},
			kind:       operation.KindSQL,
			sdkVersion: vc.SDKVersion(vc.SourceProfiler),
			reporter:   rep,
		},
	}
}

// OnBeginSync is called before cmd is run on the calling goroutine.
func (p *SQLProcessing) OnBeginSync(cmd *Command) {
	p.onBegin("OnBeginSync", cmd, false)
}

// OnBeginAsync is called before cmd is handed off to complete elsewhere.
func (p *SQLProcessing) OnBeginAsync(cmd *Command) {
	p.onBegin("OnBeginAsync", cmd, true)
}

func (p *SQLProcessing) onBegin(callback string, cmd *Command, async bool) {
	guard(callback, commandKey(cmd), func() (step, error) {
		if cmd == nil {
			return stepNone, operation.ErrInvalidArgument
		}
		return p.c.begin(cmd, cmd.ResourceName(), func(t *operation.Telemetry) {
			t.CommandName = cmd.Text
			t.Async = async
		})
	})
}

// OnEnd completes cmd as succeeded.
func (p *SQLProcessing) OnEnd(cmd *Command) {
	p.onEnd("OnEnd", cmd, nil)
}

// OnException completes cmd as failed. The result code is taken from err if the
// driver error carries a numeric code.
func (p *SQLProcessing) OnException(cmd *Command, err error) {
	p.onEnd("OnException", cmd, err)
}

func (p *SQLProcessing) onEnd(callback string, cmd *Command, err error) {
	guard(callback, commandKey(cmd), func() (step, error) {
		return p.c.end(cmd, func(t *operation.Telemetry) {
			t.Success = err == nil
			var ce coder
			if errors.As(err, &ce) {
				t.ResultCode = strconv.Itoa(ce.Code())
			}
		})
	})
}

func commandKey(cmd *Command) string {
	if cmd == nil {
		return "<nil command>"
	}
	return cmd.ResourceName()
}

// DB wraps a *sql.DB and reports every command run through it.
type DB struct {
	db         *sql.DB
	p          *SQLProcessing
	dataSource string
	database   string
}

// Wrap returns a DB running commands on db. dataSource and database name the
// connection in resource names.
func (p *SQLProcessing) Wrap(db *sql.DB, dataSource, database string) *DB {
	return &DB{db: db, p: p, dataSource: dataSource, database: database}
}

func (d *DB) command(text string, typ CommandType) *Command {
	return &Command{
		DataSource: d.dataSource,
		Database:   d.database,
		Text:       text,
		Type:       typ,
	}
}

func (d *DB) finish(cmd *Command, err error) {
	if err != nil {
		d.p.OnException(cmd, err)
		return
	}
	d.p.OnEnd(cmd)
}

// ExecContext runs query without returning rows.
func (d *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	cmd := d.command(query, CommandTypeText)
	d.p.OnBeginSync(cmd)
	res, err := d.db.ExecContext(ctx, query, args...)
	d.finish(cmd, err)
	return res, err
}

// QueryContext runs query and returns its rows. The command completes once the
// query has been executed, not when the rows are consumed.
func (d *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	cmd := d.command(query, CommandTypeText)
	d.p.OnBeginSync(cmd)
	rows, err := d.db.QueryContext(ctx, query, args...)
	d.finish(cmd, err)
	return rows, err
}

// ExecResult is the outcome of an asynchronous ExecAsync call.
type ExecResult struct {
	Result sql.Result
	Err    error
}

// ExecAsync runs query on a new goroutine. The returned channel receives exactly
// one result.
func (d *DB) ExecAsync(ctx context.Context, query string, args ...any) <-chan ExecResult {
	cmd := d.command(query, CommandTypeText)
	d.p.OnBeginAsync(cmd)

	done := make(chan ExecResult, 1)
	go func() {
		res, err := d.db.ExecContext(ctx, query, args...)
		d.finish(cmd, err)
		done <- ExecResult{Result: res, Err: err}
	}()
	return done
}

// DB returns the wrapped handle.
func (d *DB) DB() *sql.DB {
	return d.db
}
