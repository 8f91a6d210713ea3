package txmgr

import (
	"context"
	"errors"
	"testing"

	"github.com/n-r-w/uow"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// ioError plays the role of an error "supertype": every implementation matches uow.ErrorAs[ioError].
type ioError interface {
	error
	ioFailure()
}

type ioException struct {
	msg string
}

func (e *ioException) Error() string { return e.msg }
func (e *ioException) ioFailure()    {}

// fileNotFound is a "subtype" of ioError.
type fileNotFound struct {
	ioException
}

func newFileNotFound(name string) *fileNotFound {
	return &fileNotFound{ioException{msg: "file not found: " + name}}
}

type mocks struct {
	factory *MockIResourceFactory
	res     *MockIResource
	tx      *MockITransaction
}

func newMocks(t *testing.T) mocks {
	t.Helper()

	mc := gomock.NewController(t)

	return mocks{
		factory: NewMockIResourceFactory(mc),
		res:     NewMockIResource(mc),
		tx:      NewMockITransaction(mc),
	}
}

// TestInterceptor_Invoke_Commit tests the success path under the Transaction unit of work.
func TestInterceptor_Invoke_Commit(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := newMocks(t)

	gomock.InOrder(
		m.factory.EXPECT().OpenResource(gomock.Any()).Return(m.res, nil),
		m.res.EXPECT().Begin(gomock.Any(), uow.TxOptions{}).Return(m.tx, nil),
		m.tx.EXPECT().Commit(gomock.Any()).Return(nil),
		m.res.EXPECT().Close(gomock.Any()).Return(nil),
	)

	tm := New(m.factory, uow.Transaction)

	res, err := tm.Invoke(ctx, Invocation{
		Method:        "Service.Create",
		Transactional: uow.NewTransactional(),
		Proceed: func(ctxTr context.Context) (any, error) {
			require.True(t, InTransaction(ctxTr, ""))
			cur, ok := CurrentResource(ctxTr, "")
			require.True(t, ok)
			require.Equal(t, m.res, cur)
			return "created", nil
		},
	})
	require.NoError(t, err)
	require.Equal(t, "created", res)

	// nothing is left bound to the caller's context
	require.False(t, InTransaction(ctx, ""))
	_, ok := CurrentResource(ctx, "")
	require.False(t, ok)
}

// TestInterceptor_Invoke_RollbackPolicy tests commit or rollback decisions for failed calls.
func TestInterceptor_Invoke_RollbackPolicy(t *testing.T) {
	t.Parallel()

	ioErr := &ioException{msg: "disk failure"}
	notFound := newFileNotFound("data.txt")
	runtimeErr := errors.New("runtime failure")

	tests := []struct {
		name          string
		transactional uow.Transactional
		err           error
		wantRollback  bool
	}{
		{
			name:          "rollbackOn matches",
			transactional: uow.Transactional{RollbackOn: []uow.ErrorMatcher{uow.ErrorAs[ioError]()}},
			err:           ioErr,
			wantRollback:  true,
		},
		{
			name: "exceptOn overrides rollbackOn",
			transactional: uow.Transactional{
				RollbackOn: []uow.ErrorMatcher{uow.ErrorAs[ioError]()},
				ExceptOn:   []uow.ErrorMatcher{uow.ErrorAs[*fileNotFound]()},
			},
			err:          notFound,
			wantRollback: false,
		},
		{
			name: "exceptOn does not match",
			transactional: uow.Transactional{
				RollbackOn: []uow.ErrorMatcher{uow.ErrorAs[ioError]()},
				ExceptOn:   []uow.ErrorMatcher{uow.ErrorAs[*fileNotFound]()},
			},
			err:          ioErr,
			wantRollback: true,
		},
		{
			name:          "empty rollbackOn commits",
			transactional: uow.Transactional{},
			err:           runtimeErr,
			wantRollback:  false,
		},
		{
			name:          "unmatched error commits",
			transactional: uow.Transactional{RollbackOn: []uow.ErrorMatcher{uow.ErrorAs[ioError]()}},
			err:           runtimeErr,
			wantRollback:  false,
		},
		{
			name:          "default metadata rolls back any error",
			transactional: uow.NewTransactional(),
			err:           runtimeErr,
			wantRollback:  true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			m := newMocks(t)

			m.factory.EXPECT().OpenResource(gomock.Any()).Return(m.res, nil)
			m.res.EXPECT().Begin(gomock.Any(), gomock.Any()).Return(m.tx, nil)
			if tc.wantRollback {
				m.tx.EXPECT().Rollback(gomock.Any()).Return(nil)
				m.tx.EXPECT().Commit(gomock.Any()).Times(0)
			} else {
				m.tx.EXPECT().Commit(gomock.Any()).Return(nil)
				m.tx.EXPECT().Rollback(gomock.Any()).Times(0)
			}
			m.res.EXPECT().Close(gomock.Any()).Return(nil)

			tm := New(m.factory, uow.Transaction)

			res, err := tm.Invoke(context.Background(), Invocation{
				Method:        "Service.Update",
				Transactional: tc.transactional,
				Proceed: func(context.Context) (any, error) {
					return "ignored", tc.err
				},
			})
			require.Nil(t, res)
			require.Same(t, tc.err, err, "the original error must be returned unchanged")
		})
	}
}

// TestInterceptor_Invoke_CommitError tests that a commit failure is returned and the resource is still closed.
func TestInterceptor_Invoke_CommitError(t *testing.T) {
	t.Parallel()

	m := newMocks(t)
	errCommit := errors.New("commit error")

	gomock.InOrder(
		m.factory.EXPECT().OpenResource(gomock.Any()).Return(m.res, nil),
		m.res.EXPECT().Begin(gomock.Any(), gomock.Any()).Return(m.tx, nil),
		m.tx.EXPECT().Commit(gomock.Any()).Return(errCommit),
		m.res.EXPECT().Close(gomock.Any()).Return(nil),
	)
	m.tx.EXPECT().Rollback(gomock.Any()).Times(0)

	tm := New(m.factory, uow.Transaction)

	_, err := tm.Invoke(context.Background(), Invocation{
		Method:        "Service.Create",
		Transactional: uow.NewTransactional(),
		Proceed:       func(context.Context) (any, error) { return 1, nil },
	})
	require.ErrorIs(t, err, errCommit)
	require.Contains(t, err.Error(), "commit transaction")
}

// TestInterceptor_Invoke_RollbackError tests that a rollback failure does not hide the original error.
func TestInterceptor_Invoke_RollbackError(t *testing.T) {
	t.Parallel()

	m := newMocks(t)
	errCall := errors.New("call error")
	errRollback := errors.New("rollback error")

	m.factory.EXPECT().OpenResource(gomock.Any()).Return(m.res, nil)
	m.res.EXPECT().Begin(gomock.Any(), gomock.Any()).Return(m.tx, nil)
	m.tx.EXPECT().Rollback(gomock.Any()).Return(errRollback)
	m.res.EXPECT().Close(gomock.Any()).Return(nil)

	tm := New(m.factory, uow.Transaction)

	err := tm.Run(context.Background(), "Service.Delete", uow.NewTransactional(), func(context.Context) error {
		return errCall
	})
	require.ErrorIs(t, err, errCall)
	require.ErrorIs(t, err, errRollback)
	require.Same(t, errCall, uow.Original(err))
}

// TestInterceptor_Invoke_CloseError tests which error reaches the caller when closing fails.
func TestInterceptor_Invoke_CloseError(t *testing.T) {
	t.Parallel()

	errClose := errors.New("close error")

	t.Run("after a failed call the call error wins", func(t *testing.T) {
		t.Parallel()

		m := newMocks(t)
		errCall := errors.New("call error")

		m.factory.EXPECT().OpenResource(gomock.Any()).Return(m.res, nil)
		m.res.EXPECT().Begin(gomock.Any(), gomock.Any()).Return(m.tx, nil)
		m.tx.EXPECT().Rollback(gomock.Any()).Return(nil)
		m.res.EXPECT().Close(gomock.Any()).Return(errClose)

		tm := New(m.factory, uow.Transaction)

		err := tm.Run(context.Background(), "Service.Delete", uow.NewTransactional(), func(context.Context) error {
			return errCall
		})
		require.ErrorIs(t, err, errCall)
		require.ErrorIs(t, err, errClose)
		require.Same(t, errCall, uow.Original(err))
	})

	t.Run("after a commit the close error is returned with the result", func(t *testing.T) {
		t.Parallel()

		m := newMocks(t)

		m.factory.EXPECT().OpenResource(gomock.Any()).Return(m.res, nil)
		m.res.EXPECT().Begin(gomock.Any(), gomock.Any()).Return(m.tx, nil)
		m.tx.EXPECT().Commit(gomock.Any()).Return(nil)
		m.res.EXPECT().Close(gomock.Any()).Return(errClose)

		tm := New(m.factory, uow.Transaction)

		res, err := tm.Invoke(context.Background(), Invocation{
			Transactional: uow.NewTransactional(),
			Proceed:       func(context.Context) (any, error) { return 42, nil },
		})
		require.ErrorIs(t, err, errClose)
		require.Equal(t, 42, res)
	})
}

// TestInterceptor_Invoke_BeginError tests that the call is not executed and the resource is closed.
func TestInterceptor_Invoke_BeginError(t *testing.T) {
	t.Parallel()

	m := newMocks(t)
	errBegin := errors.New("begin error")

	m.factory.EXPECT().OpenResource(gomock.Any()).Return(m.res, nil)
	m.res.EXPECT().Begin(gomock.Any(), gomock.Any()).Return(nil, errBegin)
	m.res.EXPECT().Close(gomock.Any()).Return(nil)

	tm := New(m.factory, uow.Transaction)

	executed := false
	err := tm.Run(context.Background(), "Service.Create", uow.NewTransactional(), func(context.Context) error {
		executed = true
		return nil
	})
	require.ErrorIs(t, err, errBegin)
	require.Contains(t, err.Error(), "begin transaction")
	require.False(t, executed, "call should not have been executed")
}

// TestInterceptor_Invoke_OpenError tests a failure to open the resource.
func TestInterceptor_Invoke_OpenError(t *testing.T) {
	t.Parallel()

	m := newMocks(t)
	errOpen := errors.New("open error")

	m.factory.EXPECT().OpenResource(gomock.Any()).Return(nil, errOpen)

	tm := New(m.factory, uow.Transaction)

	err := tm.Run(context.Background(), "Service.Create", uow.NewTransactional(), func(context.Context) error {
		t.Fatal("call should not have been executed")
		return nil
	})
	require.ErrorIs(t, err, errOpen)
}

// TestInterceptor_Invoke_Panic tests rollback and close when the call panics.
func TestInterceptor_Invoke_Panic(t *testing.T) {
	t.Parallel()

	m := newMocks(t)

	gomock.InOrder(
		m.factory.EXPECT().OpenResource(gomock.Any()).Return(m.res, nil),
		m.res.EXPECT().Begin(gomock.Any(), gomock.Any()).Return(m.tx, nil),
		m.tx.EXPECT().Rollback(gomock.Any()).Return(nil),
		m.res.EXPECT().Close(gomock.Any()).Return(nil),
	)
	m.tx.EXPECT().Commit(gomock.Any()).Times(0)

	tm := New(m.factory, uow.Transaction)

	require.PanicsWithValue(t, "test panic", func() {
		_ = tm.Run(context.Background(), "Service.Create", uow.Transactional{}, func(context.Context) error {
			panic("test panic")
		})
	})
}

// TestInterceptor_Invoke_RequestScope tests that the interceptor never closes a resource it does not own.
func TestInterceptor_Invoke_RequestScope(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := newMocks(t)

	m.factory.EXPECT().OpenResource(gomock.Any()).Return(m.res, nil).Times(1)
	m.res.EXPECT().Begin(gomock.Any(), gomock.Any()).Return(m.tx, nil).Times(2)
	m.tx.EXPECT().Commit(gomock.Any()).Return(nil).Times(1)
	m.tx.EXPECT().Rollback(gomock.Any()).Return(nil).Times(1)
	m.res.EXPECT().Close(gomock.Any()).Return(nil).Times(1)

	wm := NewWorkManager(m.factory, uow.Request)
	tm := New(m.factory, uow.Request)

	ctxWork, err := wm.BeginWork(ctx)
	require.NoError(t, err)

	// two transactions share the resource of the unit of work
	require.NoError(t, tm.Run(ctxWork, "Service.First", uow.NewTransactional(), func(ctxTr context.Context) error {
		cur, ok := CurrentResource(ctxTr, "")
		require.True(t, ok)
		require.Equal(t, m.res, cur)
		return nil
	}))

	errCall := errors.New("call error")
	err = tm.Run(ctxWork, "Service.Second", uow.NewTransactional(), func(context.Context) error {
		return errCall
	})
	require.Same(t, errCall, err)

	// the resource is still open
	_, ok := CurrentResource(ctxWork, "")
	require.True(t, ok)

	require.NoError(t, wm.EndWork(ctxWork))
}

// TestInterceptor_Invoke_RequestScope_NoWork tests the Request unit of work without a bound resource.
func TestInterceptor_Invoke_RequestScope_NoWork(t *testing.T) {
	t.Parallel()

	m := newMocks(t)
	m.factory.EXPECT().OpenResource(gomock.Any()).Times(0)

	tm := New(m.factory, uow.Request)

	err := tm.Run(context.Background(), "Service.Create", uow.NewTransactional(), func(context.Context) error {
		return nil
	})
	require.ErrorIs(t, err, uow.ErrNoUnitOfWork)
}

// TestInterceptor_Invoke_WithoutTransaction tests that a transactional call on a context
// detached from the active transaction opens its own resource under both scopes.
func TestInterceptor_Invoke_WithoutTransaction(t *testing.T) {
	t.Parallel()

	for _, scope := range []uow.UnitOfWork{uow.Transaction, uow.Request} {
		t.Run(scope.String(), func(t *testing.T) {
			t.Parallel()

			m := newMocks(t)
			mc := gomock.NewController(t)
			auditRes := NewMockIResource(mc)
			auditTx := NewMockITransaction(mc)

			errCall := errors.New("call error")
			gomock.InOrder(
				m.factory.EXPECT().OpenResource(gomock.Any()).Return(m.res, nil),
				m.res.EXPECT().Begin(gomock.Any(), gomock.Any()).Return(m.tx, nil),
				m.factory.EXPECT().OpenResource(gomock.Any()).Return(auditRes, nil),
				auditRes.EXPECT().Begin(gomock.Any(), gomock.Any()).Return(auditTx, nil),
				auditTx.EXPECT().Commit(gomock.Any()).Return(nil),
				auditRes.EXPECT().Close(gomock.Any()).Return(nil),
				m.tx.EXPECT().Rollback(gomock.Any()).Return(nil),
				m.res.EXPECT().Close(gomock.Any()).Return(nil),
			)

			tm := New(m.factory, scope)
			run := func(ctx context.Context) error {
				return tm.Run(ctx, "Service.Create", uow.NewTransactional(), func(ctxTr context.Context) error {
					ctxAudit := WithoutTransaction(ctxTr, "")
					_, ok := CurrentResource(ctxAudit, "")
					require.False(t, ok)

					require.NoError(t, tm.Run(ctxAudit, "Audit.Write", uow.NewTransactional(), func(ctxAuditTr context.Context) error {
						cur, ok := CurrentResource(ctxAuditTr, "")
						require.True(t, ok)
						require.Equal(t, auditRes, cur)
						require.NotEqual(t, UnitOfWorkID(ctxTr, ""), UnitOfWorkID(ctxAuditTr, ""))
						return nil
					}))

					return errCall
				})
			}

			if scope == uow.Request {
				require.Same(t, errCall, NewWorkManager(m.factory, scope).Do(context.Background(), run))
			} else {
				require.Same(t, errCall, run(context.Background()))
			}
		})
	}
}

// TestInterceptor_Invoke_BoundResource tests that under the Transaction unit of work
// a resource bound by someone else is used but not closed.
func TestInterceptor_Invoke_BoundResource(t *testing.T) {
	t.Parallel()

	m := newMocks(t)
	m.factory.EXPECT().OpenResource(gomock.Any()).Times(0)
	m.res.EXPECT().Begin(gomock.Any(), gomock.Any()).Return(m.tx, nil)
	m.tx.EXPECT().Commit(gomock.Any()).Return(nil)
	m.res.EXPECT().Close(gomock.Any()).Times(0)

	ctx, err := BindResource(context.Background(), "", m.res)
	require.NoError(t, err)

	tm := New(m.factory, uow.Transaction)
	require.NoError(t, tm.Run(ctx, "Service.Create", uow.NewTransactional(), func(context.Context) error {
		return nil
	}))
}

// TestInterceptor_Invoke_InTransaction tests nested calls joining the active transaction.
func TestInterceptor_Invoke_InTransaction(t *testing.T) {
	t.Parallel()

	m := newMocks(t)

	m.factory.EXPECT().OpenResource(gomock.Any()).Return(m.res, nil).Times(1)
	m.res.EXPECT().Begin(gomock.Any(), gomock.Any()).Return(m.tx, nil).Times(1)
	m.tx.EXPECT().Rollback(gomock.Any()).Return(nil).Times(1)
	m.res.EXPECT().Close(gomock.Any()).Return(nil).Times(1)

	tm := New(m.factory, uow.Transaction)

	err := tm.Run(context.Background(), "Outer", uow.NewTransactional(), func(ctxTr context.Context) error {
		// joining with the same options
		require.NoError(t, tm.Run(ctxTr, "Inner", uow.NewTransactional(), func(ctxInner context.Context) error {
			require.True(t, InTransaction(ctxInner, ""))
			return nil
		}))

		// error when changing isolation level
		errLevel := tm.Run(ctxTr, "Inner", uow.NewTransactional(uow.WithTransactionLevel(uow.TxSerializable)),
			func(context.Context) error { return nil })
		require.ErrorIs(t, errLevel, uow.ErrTransactionMismatch)

		// error when changing transaction mode
		errMode := tm.Run(ctxTr, "Inner", uow.NewTransactional(uow.WithTransactionMode(uow.TxReadOnly)),
			func(context.Context) error { return nil })
		require.ErrorIs(t, errMode, uow.ErrTransactionMismatch)

		return errMode
	})
	require.ErrorIs(t, err, uow.ErrTransactionMismatch)
}

// TestInterceptor_Invoke_NotIntercepted tests calls the interceptor does not handle.
func TestInterceptor_Invoke_NotIntercepted(t *testing.T) {
	t.Parallel()

	m := newMocks(t)
	m.factory.EXPECT().OpenResource(gomock.Any()).Times(0)

	tm := New(m.factory, uow.Transaction,
		WithUnit("sales"),
		WithMethodMatcher(MethodPrefix("OrderService.")))

	proceed := func(ctx context.Context) (any, error) {
		require.False(t, InTransaction(ctx, "sales"))
		return "direct", nil
	}

	// method is not matched
	res, err := tm.Invoke(context.Background(), Invocation{
		Method:        "UserService.Get",
		Transactional: uow.NewTransactional(uow.WithUnit("sales")),
		Proceed:       proceed,
	})
	require.NoError(t, err)
	require.Equal(t, "direct", res)

	// unit is not matched
	res, err = tm.Invoke(context.Background(), Invocation{
		Method:        "OrderService.Create",
		Transactional: uow.NewTransactional(uow.WithUnit("billing")),
		Proceed:       proceed,
	})
	require.NoError(t, err)
	require.Equal(t, "direct", res)
}

// TestInterceptor_Invoke_InvalidScope tests an interceptor created without a valid unit of work.
func TestInterceptor_Invoke_InvalidScope(t *testing.T) {
	t.Parallel()

	m := newMocks(t)
	m.factory.EXPECT().OpenResource(gomock.Any()).Times(0)

	tm := New(m.factory, 0)

	err := tm.Run(context.Background(), "Service.Create", uow.NewTransactional(), func(context.Context) error {
		return nil
	})
	require.ErrorIs(t, err, uow.ErrConfiguration)

	_, err = tm.Invoke(context.Background(), Invocation{Method: "Service.Create"})
	require.Error(t, err)
}

// TestDo tests the generic helpers.
func TestDo(t *testing.T) {
	t.Parallel()

	m := newMocks(t)

	m.factory.EXPECT().OpenResource(gomock.Any()).Return(m.res, nil).Times(2)
	m.res.EXPECT().Begin(gomock.Any(), uow.TxOptions{Level: uow.TxRepeatableRead, Mode: uow.TxReadOnly, Lock: true}).
		Return(m.tx, nil).Times(2)
	m.tx.EXPECT().Commit(gomock.Any()).Return(nil).Times(1)
	m.tx.EXPECT().Rollback(gomock.Any()).Return(nil).Times(1)
	m.res.EXPECT().Close(gomock.Any()).Return(nil).Times(2)

	tm := New(m.factory, uow.Transaction)
	meta := uow.NewTransactional(
		uow.WithTransactionLevel(uow.TxRepeatableRead),
		uow.WithTransactionMode(uow.TxReadOnly),
		uow.WithLock(),
	)

	count := Wrap(tm, "Repo.Count", meta, func(ctx context.Context, table string) (int, error) {
		require.Equal(t, uow.TxOptions{Level: uow.TxRepeatableRead, Mode: uow.TxReadOnly, Lock: true},
			TransactionOptions(ctx, ""))
		require.Equal(t, "users", table)
		return 7, nil
	})

	n, err := count(context.Background(), "users")
	require.NoError(t, err)
	require.Equal(t, 7, n)

	errCall := errors.New("call error")
	n, err = Do(context.Background(), tm, "Repo.Count", meta, func(context.Context) (int, error) {
		return 3, errCall
	})
	require.Same(t, errCall, err)
	require.Zero(t, n)
}
