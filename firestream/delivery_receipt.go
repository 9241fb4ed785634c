package firestream

// DeliveryReceiptMessageIdKey is the body field referencing the message the
// receipt is for.
const DeliveryReceiptMessageIdKey = "id"

type DeliveryReceipt struct {
	*Sendable
}

func NewDeliveryReceipt(receiptType DeliveryReceiptType, messageId string) *DeliveryReceipt {
	receipt := &DeliveryReceipt{newSendable(SendableTypeDeliveryReceipt, nil)}
	receipt.setBodyType(string(receiptType))
	receipt.Body[DeliveryReceiptMessageIdKey] = messageId
	return receipt
}

func (self *DeliveryReceipt) ReceiptType() DeliveryReceiptType {
	return DeliveryReceiptType(self.BodyType())
}

func (self *DeliveryReceipt) MessageId() (string, error) {
	return self.BodyString(DeliveryReceiptMessageIdKey)
}

func DeliveryReceiptFromSendable(sendable *Sendable) *DeliveryReceipt {
	return &DeliveryReceipt{sendable}
}
