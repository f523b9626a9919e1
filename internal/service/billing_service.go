package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"printshop/internal/config"
	"printshop/internal/model"
	"printshop/internal/repository"
	"printshop/pkg/drive"
	"printshop/pkg/mailer"
	"printshop/pkg/pdfgen"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrInvoiceNotFound = errors.New("invoice not found")

// BillingService owns invoice generation and delivery. PDF rendering,
// the drive upload and the customer email are best-effort: the invoice
// row always persists, failures come back as warnings.
type BillingService interface {
	GenerateForOrder(ctx context.Context, order *model.Order) (*model.Invoice, []string)
	SendRejectionNotice(ctx context.Context, order *model.Order, reason string) string
	GetInvoice(ctx context.Context, id string) (*model.Invoice, error)
	ListInvoices(ctx context.Context, page, limit int, status string) ([]model.Invoice, int64, error)
	MarkPaid(ctx context.Context, id string) (*model.Invoice, error)
	VoidInvoice(ctx context.Context, id string) (*model.Invoice, error)
	ResendEmail(ctx context.Context, id string) (*model.Invoice, error)
}

type billingService struct {
	invoiceRepo repository.InvoiceRepository
	counterRepo repository.CounterRepository
	txManager   repository.TransactionManager
	mail        mailer.Mailer
	drive       *drive.Client
	cfg         *config.Config
}

func NewBillingService(
	invoiceRepo repository.InvoiceRepository,
	counterRepo repository.CounterRepository,
	txManager repository.TransactionManager,
	mail mailer.Mailer,
	driveClient *drive.Client,
	cfg *config.Config,
) BillingService {
	return &billingService{
		invoiceRepo: invoiceRepo,
		counterRepo: counterRepo,
		txManager:   txManager,
		mail:        mail,
		drive:       driveClient,
		cfg:         cfg,
	}
}

// GenerateForOrder creates (or returns the existing) invoice for an
// order, then renders, uploads and emails the PDF. Never returns an
// error: a nil invoice plus warnings means even the database write
// failed, which callers report without rolling back the order change.
func (s *billingService) GenerateForOrder(ctx context.Context, order *model.Order) (*model.Invoice, []string) {
	var warnings []string

	existing, err := s.invoiceRepo.FindByOrderID(ctx, order.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, []string{fmt.Sprintf("invoice lookup failed: %v", err)}
	}

	var invoice model.Invoice
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		invoiceNo, err := s.counterRepo.NextBusinessID(txCtx, "INV")
		if err != nil {
			return fmt.Errorf("failed to allocate invoice id: %w", err)
		}
		invoice = model.Invoice{
			InvoiceNo:      invoiceNo,
			OrderID:        order.ID,
			CustomerID:     order.CustomerID,
			Subtotal:       order.Subtotal,
			TaxAmount:      order.TaxAmount,
			DiscountAmount: order.DiscountAmount,
			TotalAmount:    order.FinalAmount,
			Status:         model.InvoiceStatusIssued,
		}
		return s.invoiceRepo.Create(txCtx, &invoice)
	})
	if err != nil {
		return nil, []string{fmt.Sprintf("invoice creation failed: %v", err)}
	}

	pdfBytes, err := pdfgen.RenderInvoice(s.invoiceData(&invoice, order))
	if err != nil {
		warnings = append(warnings, fmt.Sprintf("invoice PDF rendering failed: %v", err))
		return &invoice, warnings
	}

	if result, err := s.drive.Upload("invoices", invoice.InvoiceNo+".pdf", bytes.NewReader(pdfBytes)); err != nil {
		warnings = append(warnings, fmt.Sprintf("invoice PDF upload failed: %v", err))
	} else {
		invoice.PDFURL = result.DirectURL
	}

	if warn := s.emailInvoice(&invoice, order, pdfBytes); warn != "" {
		warnings = append(warnings, warn)
	}

	if err := s.invoiceRepo.Update(ctx, &invoice); err != nil {
		warnings = append(warnings, fmt.Sprintf("failed to persist invoice delivery state: %v", err))
	}
	return &invoice, warnings
}

func (s *billingService) emailInvoice(invoice *model.Invoice, order *model.Order, pdfBytes []byte) string {
	if order.Customer == nil || order.Customer.Email == "" {
		invoice.EmailError = "no customer email on file"
		return "invoice email skipped: no customer email on file"
	}

	subject := fmt.Sprintf("Invoice %s for order %s", invoice.InvoiceNo, order.OrderNo)
	body := fmt.Sprintf(
		"Dear %s,\r\n\r\nThank you for your order %s. Please find invoice %s attached.\r\n\r\nTotal due: %s\r\n\r\n%s",
		order.Customer.Name, order.OrderNo, invoice.InvoiceNo,
		invoice.TotalAmount.StringFixed(2), s.cfg.ShopName,
	)
	if err := s.mail.SendWithAttachment(order.Customer.Email, subject, body, invoice.InvoiceNo+".pdf", pdfBytes); err != nil {
		invoice.EmailError = err.Error()
		return fmt.Sprintf("invoice email failed: %v", err)
	}
	invoice.EmailSent = true
	invoice.EmailError = ""
	return ""
}

// SendRejectionNotice emails the customer that their payment receipt
// was rejected. Returns a warning string when nothing could be sent.
func (s *billingService) SendRejectionNotice(ctx context.Context, order *model.Order, reason string) string {
	if order.Customer == nil || order.Customer.Email == "" {
		return "rejection notice skipped: no customer email on file"
	}

	subject := fmt.Sprintf("Payment receipt for order %s was rejected", order.OrderNo)
	body := fmt.Sprintf(
		"Dear %s,\r\n\r\nThe payment receipt you uploaded for order %s could not be verified.\r\nReason: %s\r\n\r\nPlease upload a new receipt.\r\n\r\n%s",
		order.Customer.Name, order.OrderNo, reason, s.cfg.ShopName,
	)
	if err := s.mail.Send(order.Customer.Email, subject, body); err != nil {
		return fmt.Sprintf("rejection notice failed: %v", err)
	}
	return ""
}

func (s *billingService) GetInvoice(ctx context.Context, id string) (*model.Invoice, error) {
	invoiceID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrInvoiceNotFound
	}
	invoice, err := s.invoiceRepo.FindByID(ctx, invoiceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("failed to fetch invoice: %w", err)
	}
	return invoice, nil
}

func (s *billingService) ListInvoices(ctx context.Context, page, limit int, status string) ([]model.Invoice, int64, error) {
	return s.invoiceRepo.List(ctx, page, limit, status)
}

func (s *billingService) MarkPaid(ctx context.Context, id string) (*model.Invoice, error) {
	return s.setStatus(ctx, id, model.InvoiceStatusPaid)
}

func (s *billingService) VoidInvoice(ctx context.Context, id string) (*model.Invoice, error) {
	return s.setStatus(ctx, id, model.InvoiceStatusVoid)
}

func (s *billingService) setStatus(ctx context.Context, id, status string) (*model.Invoice, error) {
	invoice, err := s.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	if invoice.Status == model.InvoiceStatusVoid {
		return nil, errors.New("voided invoices cannot change status")
	}
	invoice.Status = status
	if err := s.invoiceRepo.Update(ctx, invoice); err != nil {
		return nil, fmt.Errorf("failed to update invoice: %w", err)
	}
	return invoice, nil
}

// ResendEmail re-renders the PDF and retries customer delivery.
func (s *billingService) ResendEmail(ctx context.Context, id string) (*model.Invoice, error) {
	invoice, err := s.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	if invoice.Order == nil {
		return nil, errors.New("invoice has no linked order")
	}

	pdfBytes, err := pdfgen.RenderInvoice(s.invoiceData(invoice, invoice.Order))
	if err != nil {
		return nil, fmt.Errorf("failed to render invoice PDF: %w", err)
	}
	order := invoice.Order
	if order.Customer == nil && invoice.Customer != nil {
		order.Customer = invoice.Customer
	}
	if warn := s.emailInvoice(invoice, order, pdfBytes); warn != "" {
		if err := s.invoiceRepo.Update(ctx, invoice); err != nil {
			return nil, fmt.Errorf("failed to persist invoice email state: %w", err)
		}
		return nil, errors.New(warn)
	}
	if err := s.invoiceRepo.Update(ctx, invoice); err != nil {
		return nil, fmt.Errorf("failed to persist invoice email state: %w", err)
	}
	return invoice, nil
}

func (s *billingService) invoiceData(invoice *model.Invoice, order *model.Order) pdfgen.InvoiceData {
	customerName := "Walk-in customer"
	if order.Customer != nil {
		customerName = order.Customer.Name
	}

	lines := make([]pdfgen.InvoiceLine, 0, len(order.Items))
	for _, item := range order.Items {
		amount := item.UnitPrice.Mul(intToDecimal(item.Quantity))
		lines = append(lines, pdfgen.InvoiceLine{
			Description: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice.StringFixed(2),
			Amount:      amount.StringFixed(2),
		})
	}

	return pdfgen.InvoiceData{
		InvoiceNo:    invoice.InvoiceNo,
		IssuedAt:     time.Now().Format("2006-01-02"),
		ShopName:     s.cfg.ShopName,
		ShopAddress:  s.cfg.ShopAddress,
		CustomerName: customerName,
		OrderNo:      order.OrderNo,
		Lines:        lines,
		Subtotal:     invoice.Subtotal.StringFixed(2),
		Tax:          invoice.TaxAmount.StringFixed(2),
		Discount:     invoice.DiscountAmount.StringFixed(2),
		Total:        invoice.TotalAmount.StringFixed(2),
	}
}
