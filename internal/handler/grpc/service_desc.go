// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package grpc

import (
	"context"

	"github.com/MKhiriev/go-offline-sync/internal/utils"
	"github.com/MKhiriev/go-offline-sync/models"
	"google.golang.org/grpc"
)

// SyncServer is the server API of the sync service.
type SyncServer interface {
	Register(ctx context.Context, user *models.User) (*models.User, error)
	Login(ctx context.Context, user *models.User) (*models.User, error)
	Push(ctx context.Context, req *models.PushRequest) (*models.PushResponse, error)
	Pull(ctx context.Context, req *models.PullRequest) (*models.PullResponse, error)
	Schema(ctx context.Context, _ *struct{}) (*models.SchemaInfo, error)
}

var syncServiceDesc = grpc.ServiceDesc{
	ServiceName: utils.SyncServiceName,
	HandlerType: (*SyncServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Register", Handler: unary(utils.SyncMethodRegister, SyncServer.Register)},
		{MethodName: "Login", Handler: unary(utils.SyncMethodLogin, SyncServer.Login)},
		{MethodName: "Push", Handler: unary(utils.SyncMethodPush, SyncServer.Push)},
		{MethodName: "Pull", Handler: unary(utils.SyncMethodPull, SyncServer.Pull)},
		{MethodName: "Schema", Handler: unary(utils.SyncMethodSchema, SyncServer.Schema)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "offlinesync/sync.json",
}

// unary adapts a typed method to the generic handler signature that
// generated code would otherwise provide.
func unary[Req, Resp any](fullMethod string, call func(SyncServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(SyncServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(SyncServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}
