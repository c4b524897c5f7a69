package resources

const AWS_PROVIDER = "aws"

// ARN_IAC_VALUE is the property name engines resolve to a resource's ARN.
const ARN_IAC_VALUE = "arn"
