package transferpb

import (
	context "context"
	grpc "google.golang.org/grpc"
)

type TransferServiceClient interface {
	ValidateDebit(ctx context.Context, in *ValidateDebitRequest, opts ...grpc.CallOption) (*ValidateDebitResponse, error)
	RegisterCertificate(ctx context.Context, in *RegisterCertificateRequest, opts ...grpc.CallOption) (*RegisterCertificateResponse, error)
	PropagateCredit(ctx context.Context, in *PropagateCreditRequest, opts ...grpc.CallOption) (*PropagateCreditResponse, error)
	GetBalance(ctx context.Context, in *GetBalanceRequest, opts ...grpc.CallOption) (*GetBalanceResponse, error)
	GetHistory(ctx context.Context, in *GetHistoryRequest, opts ...grpc.CallOption) (*GetHistoryResponse, error)
}

type transferServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewTransferServiceClient(cc grpc.ClientConnInterface) TransferServiceClient {
	return &transferServiceClient{cc: cc}
}

// withCodec pins a call to the registered transfer codec. Explicit
// options passed by the caller take precedence.
func withCodec(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
}

func (c *transferServiceClient) ValidateDebit(ctx context.Context, in *ValidateDebitRequest, opts ...grpc.CallOption) (*ValidateDebitResponse, error) {
	out := new(ValidateDebitResponse)
	err := c.cc.Invoke(ctx, "/at2.TransferService/ValidateDebit", in, out, withCodec(opts)...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *transferServiceClient) RegisterCertificate(ctx context.Context, in *RegisterCertificateRequest, opts ...grpc.CallOption) (*RegisterCertificateResponse, error) {
	out := new(RegisterCertificateResponse)
	err := c.cc.Invoke(ctx, "/at2.TransferService/RegisterCertificate", in, out, withCodec(opts)...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *transferServiceClient) PropagateCredit(ctx context.Context, in *PropagateCreditRequest, opts ...grpc.CallOption) (*PropagateCreditResponse, error) {
	out := new(PropagateCreditResponse)
	err := c.cc.Invoke(ctx, "/at2.TransferService/PropagateCredit", in, out, withCodec(opts)...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *transferServiceClient) GetBalance(ctx context.Context, in *GetBalanceRequest, opts ...grpc.CallOption) (*GetBalanceResponse, error) {
	out := new(GetBalanceResponse)
	err := c.cc.Invoke(ctx, "/at2.TransferService/GetBalance", in, out, withCodec(opts)...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *transferServiceClient) GetHistory(ctx context.Context, in *GetHistoryRequest, opts ...grpc.CallOption) (*GetHistoryResponse, error) {
	out := new(GetHistoryResponse)
	err := c.cc.Invoke(ctx, "/at2.TransferService/GetHistory", in, out, withCodec(opts)...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

type TransferServiceServer interface {
	ValidateDebit(context.Context, *ValidateDebitRequest) (*ValidateDebitResponse, error)
	RegisterCertificate(context.Context, *RegisterCertificateRequest) (*RegisterCertificateResponse, error)
	PropagateCredit(context.Context, *PropagateCreditRequest) (*PropagateCreditResponse, error)
	GetBalance(context.Context, *GetBalanceRequest) (*GetBalanceResponse, error)
	GetHistory(context.Context, *GetHistoryRequest) (*GetHistoryResponse, error)
	MustEmbedUnimplementedTransferServiceServer()
}

type UnimplementedTransferServiceServer struct{}

func (UnimplementedTransferServiceServer) ValidateDebit(context.Context, *ValidateDebitRequest) (*ValidateDebitResponse, error) {
	return nil, nil
}
func (UnimplementedTransferServiceServer) RegisterCertificate(context.Context, *RegisterCertificateRequest) (*RegisterCertificateResponse, error) {
	return nil, nil
}
func (UnimplementedTransferServiceServer) PropagateCredit(context.Context, *PropagateCreditRequest) (*PropagateCreditResponse, error) {
	return nil, nil
}
func (UnimplementedTransferServiceServer) GetBalance(context.Context, *GetBalanceRequest) (*GetBalanceResponse, error) {
	return nil, nil
}
func (UnimplementedTransferServiceServer) GetHistory(context.Context, *GetHistoryRequest) (*GetHistoryResponse, error) {
	return nil, nil
}
func (UnimplementedTransferServiceServer) MustEmbedUnimplementedTransferServiceServer() {}

type UnsafeTransferServiceServer interface {
	MustEmbedUnimplementedTransferServiceServer()
}

func RegisterTransferServiceServer(s grpc.ServiceRegistrar, srv TransferServiceServer) {
	s.RegisterService(&TransferService_ServiceDesc, srv)
}

func _TransferService_ValidateDebit_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ValidateDebitRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TransferServiceServer).ValidateDebit(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/at2.TransferService/ValidateDebit",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(TransferServiceServer).ValidateDebit(ctx, req.(*ValidateDebitRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _TransferService_RegisterCertificate_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(RegisterCertificateRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TransferServiceServer).RegisterCertificate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/at2.TransferService/RegisterCertificate",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(TransferServiceServer).RegisterCertificate(ctx, req.(*RegisterCertificateRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _TransferService_PropagateCredit_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(PropagateCreditRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TransferServiceServer).PropagateCredit(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/at2.TransferService/PropagateCredit",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(TransferServiceServer).PropagateCredit(ctx, req.(*PropagateCreditRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _TransferService_GetBalance_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetBalanceRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TransferServiceServer).GetBalance(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/at2.TransferService/GetBalance",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(TransferServiceServer).GetBalance(ctx, req.(*GetBalanceRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _TransferService_GetHistory_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetHistoryRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TransferServiceServer).GetHistory(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/at2.TransferService/GetHistory",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(TransferServiceServer).GetHistory(ctx, req.(*GetHistoryRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var TransferService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "at2.TransferService",
	HandlerType: (*TransferServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "ValidateDebit",
			Handler:    _TransferService_ValidateDebit_Handler,
		},
		{
			MethodName: "RegisterCertificate",
			Handler:    _TransferService_RegisterCertificate_Handler,
		},
		{
			MethodName: "PropagateCredit",
			Handler:    _TransferService_PropagateCredit_Handler,
		},
		{
			MethodName: "GetBalance",
			Handler:    _TransferService_GetBalance_Handler,
		},
		{
			MethodName: "GetHistory",
			Handler:    _TransferService_GetHistory_Handler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "api/proto/transfer.proto",
}
